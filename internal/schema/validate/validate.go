package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid matches, via errors.Is, every error returned by this package.
var ErrInvalid = errors.New("invalid input")

type invalidError struct{ err error }

func (e *invalidError) Error() string        { return e.err.Error() }
func (e *invalidError) Unwrap() error        { return e.err }
func (e *invalidError) Is(target error) bool { return target == ErrInvalid }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &invalidError{err: err}
}

// ParseSubmission unmarshals a JSON submission payload and validates its
// structure.
func ParseSubmission(raw []byte) (*schema.Submission, error) {
	var s schema.Submission
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalid(fmt.Errorf("JSON parse failed: %w", err))
	}
	if err := Submission(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Submission checks the struct tags on a submission and its embedded form.
func Submission(s *schema.Submission) error {
	if s == nil {
		return invalid(errors.New("submission is required"))
	}
	if err := structValidator.Struct(s); err != nil {
		return invalid(describe("submission", err))
	}
	return nil
}

// Approval checks a manager approval decision.
func Approval(d schema.ApprovalDecision) error {
	if err := structValidator.Struct(d); err != nil {
		return invalid(describe("approval", err))
	}
	return nil
}

// Rules validates a rule set before it is published. Every rule must pass
// its struct tags, carry a unique id and have parameters that make sense
// for its type.
func Rules(rules []schema.PolicyRule) error {
	return invalid(checkRules(rules))
}

func checkRules(rules []schema.PolicyRule) error {
	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		prefix := fmt.Sprintf("rule[%d]", i)
		if err := structValidator.Struct(r); err != nil {
			return describe(prefix, err)
		}
		if j, dup := seen[r.ID]; dup {
			return fmt.Errorf("%s: id %q duplicates rule[%d]", prefix, r.ID, j)
		}
		seen[r.ID] = i
		if err := ruleParameters(r, prefix); err != nil {
			return err
		}
	}
	return nil
}

func ruleParameters(r schema.PolicyRule, prefix string) error {
	switch r.RuleType {
	case schema.RuleMinLength:
		n, ok := r.IntParam("minLength")
		if !ok {
			return fmt.Errorf("%s: minLength rule requires numeric parameters.minLength", prefix)
		}
		if n < 1 {
			return fmt.Errorf("%s: parameters.minLength %d must be ≥ 1", prefix, n)
		}
	case schema.RulePattern:
		p, ok := r.StringParam("pattern")
		if !ok || strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s: pattern rule requires parameters.pattern", prefix)
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%s: parameters.pattern does not compile: %w", prefix, err)
		}
	case schema.RuleCompleteness:
		if len(r.StringsParam("requiredElements")) == 0 {
			return fmt.Errorf("%s: completeness rule requires parameters.requiredElements", prefix)
		}
	}
	return nil
}

// describe flattens validator errors into one line per failed field.
func describe(prefix string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s: %s", prefix, strings.Join(parts, "; "))
}
