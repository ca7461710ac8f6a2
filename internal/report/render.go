package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects a rendering
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts json, markdown (or md) and html
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

var funcs = template.FuncMap{
	"f4": func(x float64) string { return fmt.Sprintf("%.4f", x) },
	"pct": func(alpha float64) string {
		return fmt.Sprintf("%.4g%%", (1-alpha)*100)
	},
}

var templates = template.Must(template.New("report").Funcs(funcs).Parse(`
{{- define "family" -}}
{{ f4 .KSStatistic }} | {{ f4 .PValue }} | {{ with .ZPValue }}{{ f4 . }}{{ else }}n/a{{ end }} | {{ with .ConfidenceInterval }}[{{ f4 .Lower }}, {{ f4 .Upper }}]{{ else }}n/a{{ end }}
{{- end -}}

{{- define "gof" -}}
# Goodness of fit {{ .AnalysisID }}

Generated {{ .GeneratedAt.Format "2006-01-02 15:04:05 MST" }} from {{ .Observations }} observations (dataset {{ .Dataset.Short }}, intervals collapsed at {{ .CollapseMode }}).

Bootstrap samples: {{ .Collected }} of {{ .Requested }} requested.

| Family | KS statistic | p-value | z p-value | CI |
|---|---|---|---|---|
| weibull | {{ template "family" .Weibull }} |
| exponential | {{ template "family" .Exponential }} |

Preferred family: **{{ .Preferred }}**
{{- if .Models }}

## Fitted models

| Family | Parameters | Log-likelihood | AIC |
|---|---|---|---|
{{- range .Models }}
| {{ .Family }} | {{ range $i, $p := .Params }}{{ if $i }}, {{ end }}{{ f4 $p }}{{ end }} | {{ f4 .LogLikelihood }} | {{ f4 .AIC }} |
{{- end }}
{{- end }}
{{- if .Curves }}

## Survival curves

| Time | Empirical | Weibull | Exponential |
|---|---|---|---|
{{- range .Curves }}
| {{ f4 .Time }} | {{ f4 .Empirical }} | {{ f4 .Weibull }} | {{ f4 .Exponential }} |
{{- end }}
{{- end }}
{{ end -}}

{{- define "params" -}}
# Parameter bootstrap {{ .AnalysisID }}

Generated {{ .GeneratedAt.Format "2006-01-02 15:04:05 MST" }} from {{ .Observations }} observations (dataset {{ .Dataset.Short }}).

Bootstrap samples: {{ .Collected }} of {{ .Requested }} requested.

| Family | Parameter | Observed | Mean | CI |
|---|---|---|---|---|
{{- range .Parameters }}
| {{ .Family }} | {{ .Name }} | {{ f4 .Observed }} | {{ with .ConfidenceInterval }}{{ f4 .Mean }} | {{ pct .Alpha }} [{{ f4 .Lower }}, {{ f4 .Upper }}]{{ else }}n/a | n/a{{ end }} |
{{- end }}
{{ end -}}
`))

// Markdown renders a goodness-of-fit report
func (r *GoodnessOfFit) Markdown() (string, error) {
	return execute("gof", r)
}

// HTML renders a goodness-of-fit report as an HTML fragment
func (r *GoodnessOfFit) HTML() (string, error) {
	md, err := r.Markdown()
	if err != nil {
		return "", err
	}
	return ToHTML(md), nil
}

// Markdown renders a parameter bootstrap report
func (r *ParameterBootstrap) Markdown() (string, error) {
	return execute("params", r)
}

// HTML renders a parameter bootstrap report as an HTML fragment
func (r *ParameterBootstrap) HTML() (string, error) {
	md, err := r.Markdown()
	if err != nil {
		return "", err
	}
	return ToHTML(md), nil
}

// ToHTML converts markdown with tables to HTML
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", name, err)
	}
	return buf.String(), nil
}
