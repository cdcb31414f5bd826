// Package taxonomy loads the pillar/requirement tree that claims are
// attributed against. The taxonomy is externally supplied, read-only input;
// nothing in the pipeline ever mutates requirement definitions.
package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Requirement is a leaf node of the pillar taxonomy
type Requirement struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Pillar groups related requirements
type Pillar struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
}

// Taxonomy is the full requirement tree with lookup indexes
type Taxonomy struct {
	Pillars []Pillar `yaml:"pillars" json:"pillars"`

	byRequirement map[string]Requirement
	pillarOf      map[string]string
}

// Load reads a taxonomy YAML file and builds lookup indexes
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse builds a taxonomy from YAML bytes
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Pillars) == 0 {
		return nil, fmt.Errorf("taxonomy has no pillars")
	}
	t.byRequirement = make(map[string]Requirement)
	t.pillarOf = make(map[string]string)
	for _, p := range t.Pillars {
		for _, r := range p.Requirements {
			if _, dup := t.byRequirement[r.ID]; dup {
				return nil, fmt.Errorf("duplicate requirement ID %q", r.ID)
			}
			t.byRequirement[r.ID] = r
			t.pillarOf[r.ID] = p.ID
		}
	}
	return &t, nil
}

// Requirement looks up a requirement definition by ID
func (t *Taxonomy) Requirement(id string) (Requirement, bool) {
	r, ok := t.byRequirement[id]
	return r, ok
}

// PillarOf returns the pillar ID owning a requirement
func (t *Taxonomy) PillarOf(requirementID string) (string, bool) {
	p, ok := t.pillarOf[requirementID]
	return p, ok
}

// RequirementIDs returns all requirement IDs in pillar order
func (t *Taxonomy) RequirementIDs() []string {
	var ids []string
	for _, p := range t.Pillars {
		for _, r := range p.Requirements {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
