package sqllab

import (
	"strings"
	"text/template"

	"sqldesk/internal/domain"
)

// Renderer expands template parameters inside submitted SQL before
// execution. Rendering is all-or-nothing: on any parse or execution failure
// the original SQL is discarded and a RenderError is returned.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render substitutes {{.name}} parameters in sqlText. Unknown parameters and
// malformed template syntax are errors; SQL without template markers passes
// through unchanged.
func (r *Renderer) Render(sqlText string, params map[string]string) (string, error) {
	if !strings.Contains(sqlText, "{{") {
		return sqlText, nil
	}

	tmpl, err := template.New("query").Option("missingkey=error").Parse(sqlText)
	if err != nil {
		return "", domain.ErrRender("invalid template syntax: %v", err)
	}

	if params == nil {
		params = map[string]string{}
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", domain.ErrRender("template rendering failed: %v", err)
	}
	return buf.String(), nil
}
