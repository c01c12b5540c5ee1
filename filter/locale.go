package filter

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/robfig/hashtpl/data"
)

// Locale formats numbers with the grouping and decimal separators of a
// language.  Other values format as with Default.
type Locale struct {
	Tag  language.Tag
	Null string
}

func (f Locale) Format(v data.Value) string {
	var k = data.KindOf(v)
	switch {
	case k.IsIntegral():
		return message.NewPrinter(f.Tag).Sprint(number.Decimal(data.ToInt64(v)))
	case k.IsNumeric():
		return message.NewPrinter(f.Tag).Sprint(number.Decimal(data.ToFloat64(v)))
	}
	return Default{f.Null}.Format(v)
}
