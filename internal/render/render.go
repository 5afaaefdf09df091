package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Renderer formats a quality gate report for output.
type Renderer interface {
	Render(report *schema.Report) ([]byte, error)
}

var renderers = map[string]func() Renderer{
	"json": func() Renderer { return &jsonRenderer{} },
	"md":   func() Renderer { return &markdownRenderer{} },
	"text": func() Renderer { return &textRenderer{} },
}

// Formats lists the accepted format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRenderer returns the renderer registered for format.
func NewRenderer(format string) (Renderer, error) {
	newFn, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q: supported formats are %s", format, strings.Join(Formats(), ", "))
	}
	return newFn(), nil
}
