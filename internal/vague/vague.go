// Package vague flags imprecise wording in free-text quality records.
package vague

import "regexp"

// Category labels, in the order they are reported.
const (
	VagueDescriptors     = "vague descriptors"
	UnspecificQuantities = "unspecific quantities"
	NonSpecificTerms     = "non-specific terms"
	UncertainLanguage    = "uncertain language"
)

type category struct {
	label   string
	pattern *regexp.Regexp
}

// categories is the full detector used for field-level checks.
var categories = []category{
	{VagueDescriptors, regexp.MustCompile(`(?i)\b(bad|broken|wrong|issue|problem|defective)\b`)},
	{UnspecificQuantities, regexp.MustCompile(`(?i)\b(some|few|many|several|a lot|a bit)\b`)},
	{NonSpecificTerms, regexp.MustCompile(`(?i)\b(thing|stuff|something|anything|whatever)\b`)},
	{UncertainLanguage, regexp.MustCompile(`(?i)\b(kind of|sort of|maybe|perhaps|probably)\b`)},
}

// descriptionCategories is the narrower set applied inside the description
// completeness check. It has no uncertain-language category and shorter
// word lists.
var descriptionCategories = []category{
	{VagueDescriptors, regexp.MustCompile(`(?i)\b(bad|broken|wrong|issue|problem)\b`)},
	{UnspecificQuantities, regexp.MustCompile(`(?i)\b(some|few|many|several)\b`)},
	{NonSpecificTerms, regexp.MustCompile(`(?i)\b(thing|stuff|something|anything)\b`)},
}

// Detect returns the labels of every category whose pattern matches text.
func Detect(text string) []string {
	return match(categories, text)
}

// DetectCore runs the three-category detector used for NC descriptions.
func DetectCore(text string) []string {
	return match(descriptionCategories, text)
}

func match(cats []category, text string) []string {
	out := []string{}
	for _, c := range cats {
		if c.pattern.MatchString(text) {
			out = append(out, c.label)
		}
	}
	return out
}
