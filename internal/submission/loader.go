// Package submission loads form submissions and policy rule files from disk.
package submission

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema/validate"
)

// File holds a loaded submission with derived metadata.
type File struct {
	Path       string
	Hash       string // "sha256:<hex>"
	Raw        []byte
	Submission *schema.Submission
}

// Load reads a JSON or YAML submission. Files ending in .yaml or .yml are
// decoded as YAML; everything else as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading submission file: %w", err)
	}
	return parse(path, data)
}

// LoadReader reads a submission from r; name picks the format as in Load.
func LoadReader(name string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading submission: %w", err)
	}
	return parse(name, data)
}

func parse(path string, data []byte) (*File, error) {
	sum := sha256.Sum256(data)
	f := &File{
		Path: path,
		Hash: fmt.Sprintf("sha256:%x", sum),
		Raw:  data,
	}

	if isYAML(path) {
		var s schema.Submission
		if err := decodeYAML(data, &s); err != nil {
			return nil, fmt.Errorf("%w: YAML parse failed: %v", validate.ErrInvalid, err)
		}
		if err := validate.Submission(&s); err != nil {
			return nil, err
		}
		f.Submission = &s
		return f, nil
	}

	s, err := validate.ParseSubmission(data)
	if err != nil {
		return nil, err
	}
	f.Submission = s
	return f, nil
}

// RuleFile is the on-disk form of a rule set to publish. A bare list of
// rules is accepted too.
type RuleFile struct {
	Rules     []schema.PolicyRule `json:"rules" yaml:"rules"`
	Changelog []string            `json:"changelog,omitempty" yaml:"changelog,omitempty"`
}

// LoadRules reads and validates a rule file.
func LoadRules(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rf RuleFile
	trimmed := bytes.TrimSpace(data)
	switch {
	case isYAML(path):
		if err := decodeYAML(data, &rf); err != nil {
			var list []schema.PolicyRule
			if lerr := decodeYAML(data, &list); lerr != nil {
				return nil, fmt.Errorf("%w: YAML parse failed: %v", validate.ErrInvalid, err)
			}
			rf.Rules = list
		}
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(data, &rf.Rules); err != nil {
			return nil, fmt.Errorf("%w: JSON parse failed: %v", validate.ErrInvalid, err)
		}
	default:
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("%w: JSON parse failed: %v", validate.ErrInvalid, err)
		}
	}

	if rf.Rules == nil {
		rf.Rules = []schema.PolicyRule{}
	}
	if err := validate.Rules(rf.Rules); err != nil {
		return nil, err
	}
	return &rf, nil
}

// decodeYAML rejects unknown keys so typos in field names surface early.
func decodeYAML(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
