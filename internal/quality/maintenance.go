package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/vague"
)

// MinMaintenanceDescription is the built-in minimum for an MJC description.
const MinMaintenanceDescription = 100

// ValidateMaintenanceDescription checks the required description of an MJC.
func (v *Validator) ValidateMaintenanceDescription(description string) schema.ValidationResult {
	res := newResult()

	min, rule := v.minimumFor(schema.FieldDescriptionRequired, "", MinMaintenanceDescription)
	if utf8.RuneCountInString(strings.TrimSpace(description)) < min {
		res.add(minimumIssue(rule, schema.ValidationIssue{
			Field:      schema.FieldDescriptionRequired,
			Message:    fmt.Sprintf("Maintenance description must be at least %d characters.", min),
			Severity:   schema.SeverityError,
			ExampleFix: `Example: "Sealing jaw on Line 3 running 8°C below setpoint since 06:00. Thermocouple reading unstable. Requesting replacement before next shift."`,
		}))
	}
	v.vagueWarning(res, schema.FieldDescriptionRequired, description)
	v.applyRules(res, schema.FieldDescriptionRequired, description)
	return res.build()
}

// ValidateMaintenancePerformed checks the optional work record of an MJC.
func (v *Validator) ValidateMaintenancePerformed(performed string) schema.ValidationResult {
	trimmed := strings.TrimSpace(performed)
	if trimmed == "" {
		return emptyResult()
	}
	res := newResult()
	v.vagueWarning(res, schema.FieldMaintenancePerformed, trimmed)
	v.applyRules(res, schema.FieldMaintenancePerformed, trimmed)
	return res.build()
}

func (v *Validator) vagueWarning(res *result, field, text string) {
	found := vague.Detect(text)
	if len(found) == 0 {
		return
	}
	res.vague = append(res.vague, found...)
	res.add(schema.ValidationIssue{
		Field:    field,
		Message:  fmt.Sprintf("%s contains vague language (%s). Please state what was done, to which part, and the measured result.", fieldLabel(field), strings.Join(found, ", ")),
		Severity: schema.SeverityWarning,
	})
}
