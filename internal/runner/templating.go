package runner

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// PathTemplate builds the request path of each size sweep iteration.
type PathTemplate struct {
	tmpl *template.Template
}

// PathData is passed to the template execution.
type PathData struct {
	Size int
}

// ParsePathTemplate accepts Go template syntax plus the shorthand {{size}}.
func ParsePathTemplate(text string) (*PathTemplate, error) {
	if text == "" {
		text = DefaultSizePath
	}
	text = strings.ReplaceAll(text, "{{size}}", "{{.Size}}")

	t, err := template.New("size-path").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse size path %q: %w", text, err)
	}
	return &PathTemplate{tmpl: t}, nil
}

// Path renders the request path for size.
func (p *PathTemplate) Path(size int) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, PathData{Size: size}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
