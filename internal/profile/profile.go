package profile

import (
	"fmt"
	"strings"
)

// DefaultMinDescription applies to "other" and to any unrecognised category.
const DefaultMinDescription = 100

// Profile holds the per-category requirements for an NC description.
type Profile struct {
	Name                 string
	MinDescriptionLength int
	// RequireTime marks categories where a missing time token is an error
	// rather than a completeness warning.
	RequireTime bool
	// RequireBatch marks categories whose checklist requires batch/carton ids.
	RequireBatch bool
}

// Names lists the built-in categories.
var Names = []string{"raw-material", "finished-goods", "wip", "incident", "other"}

// Get returns the profile for an NC category. Unknown categories get the
// "other" profile under the caller's name, so messages still echo it.
func Get(name string) *Profile {
	p, err := Lookup(name)
	if err != nil {
		p = other()
		p.Name = name
	}
	return p
}

// Lookup returns the built-in profile for name or an error for an unknown one.
func Lookup(name string) (*Profile, error) {
	switch name {
	case "raw-material":
		return rawMaterial(), nil
	case "finished-goods":
		return finishedGoods(), nil
	case "wip":
		return wip(), nil
	case "incident":
		return incident(), nil
	case "other":
		return other(), nil
	default:
		return nil, fmt.Errorf("unknown nc type %q: valid types are %s", name, strings.Join(Names, ", "))
	}
}

// Label renders the category for messages: the first hyphen becomes a space.
func (p *Profile) Label() string {
	return strings.Replace(p.Name, "-", " ", 1)
}

func rawMaterial() *Profile {
	return &Profile{Name: "raw-material", MinDescriptionLength: 120, RequireBatch: true}
}

func finishedGoods() *Profile {
	return &Profile{Name: "finished-goods", MinDescriptionLength: 150, RequireBatch: true}
}

func wip() *Profile {
	return &Profile{Name: "wip", MinDescriptionLength: 130}
}

func incident() *Profile {
	return &Profile{Name: "incident", MinDescriptionLength: 200, RequireTime: true}
}

func other() *Profile {
	return &Profile{Name: "other", MinDescriptionLength: DefaultMinDescription}
}
