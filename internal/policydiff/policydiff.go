// Package policydiff compares the rule sets of two policy versions.
package policydiff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Changes lists rule ids by how they differ between two versions. Each
// list is sorted.
type Changes struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Empty reports whether the two versions carry the same rules.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Lines renders each rule as one canonical line, sorted by rule id.
// Parameters are encoded as JSON, whose map keys are always sorted.
func Lines(rules []schema.PolicyRule) []string {
	lines := make([]string, 0, len(rules))
	for _, r := range sorted(rules) {
		lines = append(lines, line(r))
	}
	return lines
}

func line(r schema.PolicyRule) string {
	params, err := json.Marshal(r.Parameters)
	if err != nil {
		params = []byte(fmt.Sprintf("%q", fmt.Sprint(r.Parameters)))
	}
	return fmt.Sprintf("%s %s %s enabled=%t ref=%s params=%s", r.ID, r.Field, r.RuleType, r.Enabled, r.ReferenceCode, params)
}

func sorted(rules []schema.PolicyRule) []schema.PolicyRule {
	out := make([]schema.PolicyRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Diff returns the diff-match-patch patch text turning from's rule lines
// into to's. It is empty when both versions render the same lines.
func Diff(from, to schema.PolicyVersion) string {
	before := strings.Join(Lines(from.Rules), "\n") + "\n"
	after := strings.Join(Lines(to.Rules), "\n") + "\n"
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, index := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), index)
	patchText := dmp.PatchToText(dmp.PatchMake(before, diffs))
	if patchText == "" {
		return ""
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# policy %s -> %s\n", label(from), label(to))
	out.WriteString(patchText)
	return out.String()
}

func label(v schema.PolicyVersion) string {
	if v.Version == "" {
		return "(unversioned)"
	}
	return v.Version
}

// Compare matches rules by id and reports which were added, removed or
// modified between from and to.
func Compare(from, to schema.PolicyVersion) Changes {
	old := make(map[string]string, len(from.Rules))
	for _, r := range from.Rules {
		old[r.ID] = line(r)
	}
	seen := make(map[string]bool, len(to.Rules))

	c := Changes{Added: []string{}, Removed: []string{}, Changed: []string{}}
	for _, r := range sorted(to.Rules) {
		seen[r.ID] = true
		prev, ok := old[r.ID]
		switch {
		case !ok:
			c.Added = append(c.Added, r.ID)
		case prev != line(r):
			c.Changed = append(c.Changed, r.ID)
		}
	}
	for _, r := range sorted(from.Rules) {
		if !seen[r.ID] {
			c.Removed = append(c.Removed, r.ID)
		}
	}
	return c
}

// Changelog turns a comparison into changelog entries. An empty
// comparison yields a single "No rule changes" entry.
func Changelog(c Changes) []string {
	if c.Empty() {
		return []string{"No rule changes"}
	}
	out := make([]string, 0, len(c.Added)+len(c.Changed)+len(c.Removed))
	for _, id := range c.Added {
		out = append(out, "Added rule "+id)
	}
	for _, id := range c.Changed {
		out = append(out, "Changed rule "+id)
	}
	for _, id := range c.Removed {
		out = append(out, "Removed rule "+id)
	}
	return out
}
