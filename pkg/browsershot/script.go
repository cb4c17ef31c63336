package browsershot

import (
	"encoding/json"
	"strings"
	"text/template"
)

var scriptTemplate = template.Must(template.New("phantom").Funcs(template.FuncMap{
	"quote": jsString,
}).Parse(`var page = require('webpage').create();
page.settings.javascriptEnabled = true;
{{- if .UserAgent}}
page.settings.userAgent = {{quote .UserAgent}};
{{- end}}
page.viewportSize = { width: {{.Width}}{{if gt .Height 0}}, height: {{.Height}}{{end}} };
page.open({{quote .URL}}, function(status) {
    if (status !== 'success') {
        phantom.exit(1);
        return;
    }
    window.setTimeout(function() {
        page.render({{quote .OutputPath}});
        phantom.exit();
    }, {{.DelayMillis}});
});
`))

type scriptData struct {
	Width       int
	Height      int
	UserAgent   string
	URL         string
	OutputPath  string
	DelayMillis int64
}

// Script returns the PhantomJS program that renders req using cfg.
func Script(cfg RenderConfig, req Request) (string, error) {
	var sb strings.Builder
	err := scriptTemplate.Execute(&sb, scriptData{
		Width:       cfg.Width,
		Height:      cfg.Height,
		UserAgent:   cfg.UserAgent,
		URL:         req.URL,
		OutputPath:  req.OutputPath,
		DelayMillis: cfg.Delay.Milliseconds(),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
