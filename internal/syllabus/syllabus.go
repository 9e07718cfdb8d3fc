// Package syllabus maps question labels to course modules and Bloom's
// taxonomy levels for report breakdowns.
package syllabus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults used for labels the mapping does not mention.
const (
	UnknownModule    = "Unknown"
	UnspecifiedBloom = "Unspecified"
)

// Entry is the syllabus metadata of one question.
type Entry struct {
	Module string `json:"module" yaml:"module"`
	Bloom  string `json:"bloom" yaml:"bloom"`
}

// Mapping is keyed by question label, e.g. "Q1".
type Mapping map[string]Entry

// Lookup returns label's entry with defaults filled in.
func (m Mapping) Lookup(label string) Entry {
	e := m[label]
	if strings.TrimSpace(e.Module) == "" {
		e.Module = UnknownModule
	}
	if strings.TrimSpace(e.Bloom) == "" {
		e.Bloom = UnspecifiedBloom
	}
	return e
}

// Load reads a mapping from a .json, .yaml or .yml file.
func Load(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read syllabus: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data according to ext. Unknown extensions are read as JSON.
func Parse(data []byte, ext string) (Mapping, error) {
	m := Mapping{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse syllabus yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse syllabus json: %w", err)
		}
	}
	return m, nil
}
