package filter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"text/template"

	"golang.org/x/net/html"
)

// Escapers are the value filters that may be selected by name.
// Callers may add their own escapers to this map.
var Escapers = map[string]Filter{
	"none": None,
	"html": FilterFunc(escapeHTML),
	"uri":  FilterFunc(escapeURI),
	"js":   FilterFunc(escapeJsString),
	"json": FilterFunc(escapeJSON),
}

// Named returns the escaper with the given name.
func Named(name string) (Filter, error) {
	if f, ok := Escapers[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("unknown escaper %q", name)
}

func escapeHTML(_, text string) string {
	return html.EscapeString(text)
}

func escapeURI(_, text string) string {
	return url.QueryEscape(text)
}

func escapeJSON(_, text string) string {
	var j, err = json.Marshal(text)
	if err != nil {
		panic(err)
	}
	return string(j)
}

func escapeJsString(_, text string) string {
	return template.JSEscapeString(text)
}
