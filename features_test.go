package hashtpl

import (
	"bytes"
	"testing"

	"github.com/andreyvit/diff"

	"github.com/robfig/hashtpl/config"
)

const featuresOutput = "\n\n\n\n" +
	"<h1>Features</h1>\n" +
	"\n0: <b>a</b>,\n" +
	"\n1: <b>b</b>,\n" +
	"\n2: <b>c</b>.\n" +
	"\n" +
	"count=3 twice=6\n" +
	"many\n" +
	"1\n" +
	"#literal $x $ #if(x)${y}\n" +
	"done\n"

func TestFeatures(t *testing.T) {
	for _, backend := range []string{config.BackendInterpreter, config.BackendJavaScript} {
		var cfg = config.Default()
		cfg.Template.Directory = "testdata"
		cfg.Backend = backend
		var e, err = NewBuilder(cfg).Build()
		if err != nil {
			t.Fatal(err)
		}

		tmpl, err := e.GetTemplate("features")
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		err = tmpl.Render(&buf, map[string]interface{}{
			"title": "Features",
			"items": []string{"a", "b", "c"},
		})
		if err != nil {
			t.Errorf("%s: %v", backend, err)
			continue
		}
		if buf.String() != featuresOutput {
			t.Errorf("%s: output differs:\n%v", backend, diff.LineDiff(featuresOutput, buf.String()))
		}
	}
}
