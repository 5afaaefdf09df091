package policydiff

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

func minLength(id string, n int) schema.PolicyRule {
	return schema.PolicyRule{
		ID:            id,
		Field:         schema.FieldNCDescription,
		RuleType:      schema.RuleMinLength,
		Parameters:    map[string]any{"minLength": n},
		ReferenceCode: "BRCGS 5.7.2",
		Enabled:       true,
	}
}

func TestDiff_IdenticalIsEmpty(t *testing.T) {
	v := schema.PolicyVersion{Version: "1.0.0", Rules: []schema.PolicyRule{minLength("a", 100)}}
	if out := Diff(v, v); out != "" {
		t.Errorf("expected empty diff, got %q", out)
	}
}

func TestDiff_RuleOrderIgnored(t *testing.T) {
	a := schema.PolicyVersion{Version: "1.0.0", Rules: []schema.PolicyRule{minLength("a", 100), minLength("b", 120)}}
	b := schema.PolicyVersion{Version: "1.1.0", Rules: []schema.PolicyRule{minLength("b", 120), minLength("a", 100)}}
	if out := Diff(a, b); out != "" {
		t.Errorf("reordered rules should not diff, got %q", out)
	}
}

func TestDiff_ChangedParameter(t *testing.T) {
	a := schema.PolicyVersion{Version: "1.0.0", Rules: []schema.PolicyRule{minLength("a", 100)}}
	b := schema.PolicyVersion{Version: "1.1.0", Rules: []schema.PolicyRule{minLength("a", 90)}}
	out := Diff(a, b)
	if !strings.HasPrefix(out, "# policy 1.0.0 -> 1.1.0\n") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "@@") {
		t.Errorf("expected patch hunk, got %q", out)
	}
}

func TestCompare(t *testing.T) {
	a := schema.PolicyVersion{Rules: []schema.PolicyRule{minLength("keep", 100), minLength("drop", 100), minLength("edit", 100)}}
	b := schema.PolicyVersion{Rules: []schema.PolicyRule{minLength("keep", 100), minLength("edit", 150), minLength("new", 100)}}
	got := Compare(a, b)
	want := Changes{Added: []string{"new"}, Removed: []string{"drop"}, Changed: []string{"edit"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compare = %+v, want %+v", got, want)
	}
	if got.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestCompare_DisabledCountsAsChange(t *testing.T) {
	on := minLength("a", 100)
	off := on
	off.Enabled = false
	got := Compare(schema.PolicyVersion{Rules: []schema.PolicyRule{on}}, schema.PolicyVersion{Rules: []schema.PolicyRule{off}})
	if len(got.Changed) != 1 || got.Changed[0] != "a" {
		t.Errorf("Changed = %v, want [a]", got.Changed)
	}
}

func TestChangelog(t *testing.T) {
	got := Changelog(Changes{Added: []string{"n"}, Changed: []string{"e"}, Removed: []string{"d"}})
	want := []string{"Added rule n", "Changed rule e", "Removed rule d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Changelog = %v, want %v", got, want)
	}
	if got := Changelog(Changes{}); len(got) != 1 || got[0] != "No rule changes" {
		t.Errorf("empty Changelog = %v", got)
	}
}

func TestLines_Canonical(t *testing.T) {
	lines := Lines([]schema.PolicyRule{minLength("z", 1), minLength("a", 2)})
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a ") {
		t.Fatalf("Lines = %v", lines)
	}
	want := `a nc_description minLength enabled=true ref=BRCGS 5.7.2 params={"minLength":2}`
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}
