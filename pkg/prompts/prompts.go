// Package prompts renders the system prompt templates.
package prompts

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/eztoolbox/session"
)

// DefaultSystemPrompt is used when no system prompt is configured
const DefaultSystemPrompt = `You are a helpful assistant with access to tools.
{{- if .Tools }}
Tools are named server.tool, the available servers are:
{{- range .Servers }}
- {{ .Name }}{{ with .Description }}: {{ . }}{{ end }}
{{- end }}
{{- end }}
Use the tools when they help to answer, and answer concisely.`

// Data is available to the system prompt template
type Data struct {
	Servers []pool.Status
	Tools   []pool.Tool
	// Model is the configured model name
	Model string
}

// NewData returns the template data of the connected servers
func NewData(p *pool.Pool, model string) Data {
	var servers []pool.Status
	for _, st := range p.Report() {
		if st.Status == session.Ready {
			servers = append(servers, st)
		}
	}
	return Data{
		Servers: servers,
		Tools:   p.AggregatedCatalog(),
		Model:   model,
	}
}

// Render executes the template with the sprig functions
func Render(text string, data any) (string, error) {
	tmpl, err := template.New("prompt").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", errors.Wrap(err, "unable to parse prompt template")
	}

	var b strings.Builder
	if err = tmpl.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, "unable to render prompt template")
	}
	return strings.TrimSpace(b.String()), nil
}
