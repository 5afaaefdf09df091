package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

type markdownRenderer struct{}

var mdTemplate = template.Must(template.New("report").Parse(`# Quality Gate Report

**Input:** {{ .Input.Path }} ({{ .Input.FormType }}{{ if .Input.FormID }} {{ .Input.FormID }}{{ end }})
**Verdict:** {{ .Summary.Verdict }}
**Score:** {{ .Summary.Score }}/100
**Errors:** {{ .Summary.ErrorCount }} | **Warnings:** {{ .Summary.WarningCount }}
**Attempt:** {{ .Decision.AttemptNumber }} | **Level:** {{ .Summary.EnforcementLevel }} | **Action:** {{ .Summary.Action }}
{{ if .Decision.EscalationMessage }}
> {{ .Decision.EscalationMessage }}
{{ end }}{{ if .Decision.Enforcement.RequiresManagerApproval }}
**Manager approval required before this record can be submitted.**
{{ end }}{{ with .Decision.Enforcement.Errors }}
---

## Blocking Errors
{{ range . }}
- **{{ .Field }}**: {{ .Message }}{{ if .Reference }} ({{ .Reference }}){{ end }}
{{ end }}{{ end }}{{ with .Decision.Enforcement.Requirements }}
---

## Requirements
{{ range . }}
- **{{ .Field }}**: {{ .Message }}{{ if .Reference }} ({{ .Reference }}){{ end }}{{ if .ExampleFix }}
  *Example:* {{ .ExampleFix }}{{ end }}
{{ end }}{{ end }}{{ with .Decision.Enforcement.Warnings }}
---

## Warnings
{{ range . }}
- **{{ .Field }}**: {{ .Message }}{{ if .Suggestion }}
  *Suggestion:* {{ .Suggestion }}{{ end }}
{{ end }}{{ end }}
---
*{{ .Tool }} {{ .Version }}{{ if .Summary.PolicyVersion }} | Policy: {{ .Summary.PolicyVersion }}{{ end }} | Input SHA-256: {{ .Input.SHA256 }}*
`))

func (r *markdownRenderer) Render(report *schema.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
