package render

import (
	"bytes"
	"fmt"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// textRenderer prints one status line followed by one line per blocking
// error, requirement and warning.
type textRenderer struct{}

func (r *textRenderer) Render(report *schema.Report) ([]byte, error) {
	var buf bytes.Buffer
	s := report.Summary
	fmt.Fprintf(&buf, "%s %s score=%d errors=%d warnings=%d attempt=%d level=%s action=%s\n",
		report.Input.Path, s.Verdict, s.Score, s.ErrorCount, s.WarningCount,
		report.Decision.AttemptNumber, s.EnforcementLevel, s.Action)

	e := report.Decision.Enforcement
	for _, item := range e.Errors {
		fmt.Fprintf(&buf, "ERROR   %s: %s\n", item.Field, item.Message)
	}
	for _, item := range e.Requirements {
		fmt.Fprintf(&buf, "REQUIRE %s: %s\n", item.Field, item.Message)
	}
	for _, item := range e.Warnings {
		fmt.Fprintf(&buf, "WARN    %s: %s\n", item.Field, item.Message)
	}
	if e.RequiresManagerApproval {
		buf.WriteString("manager approval required\n")
	}
	return buf.Bytes(), nil
}
