package models

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

const DefaultTemplateKey = "default"

type MilestoneTemplate struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Stage       Stage  `yaml:"stage"`
}

func (t MilestoneTemplate) Milestone() Milestone {
	return Milestone{ID: t.ID, Title: t.Title, Description: t.Description, Stage: t.Stage}
}

// TemplateSet maps a connection type to the milestones seeded into new connections of that type
type TemplateSet map[ConnectionType][]MilestoneTemplate

// For returns the template of the given type, falling back to the default one
func (ts TemplateSet) For(kind ConnectionType) []MilestoneTemplate {
	if tpl, ok := ts[kind]; ok {
		return tpl
	}
	return ts[DefaultTemplateKey]
}

// DefaultTemplates returns the built-in template set
func DefaultTemplates() TemplateSet {
	ts, err := ParseTemplates(defaultTemplatesYAML)
	if err != nil {
		panic("invalid built-in milestone templates: " + err.Error())
	}
	return ts
}

// LoadTemplates reads a template set from a YAML file
func LoadTemplates(path string) (TemplateSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseTemplates(raw)
}

func ParseTemplates(raw []byte) (TemplateSet, error) {
	var ts TemplateSet
	if err := yaml.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("parse milestone templates: %w", err)
	}
	if _, ok := ts[DefaultTemplateKey]; !ok {
		return nil, NewValidationError("milestone templates must define a default set")
	}
	for kind, tpl := range ts {
		seen := make(map[string]bool, len(tpl))
		for _, t := range tpl {
			if t.ID == "" || t.Title == "" {
				return nil, NewValidationError(fmt.Sprintf("template %s: milestones need an id and a title", kind))
			}
			if seen[t.ID] {
				return nil, NewValidationError(fmt.Sprintf("template %s: duplicate milestone %q", kind, t.ID))
			}
			if t.Stage != "" && !t.Stage.Valid() {
				return nil, NewValidationError(fmt.Sprintf("template %s: unknown stage %q", kind, t.Stage))
			}
			seen[t.ID] = true
		}
	}
	return ts, nil
}
