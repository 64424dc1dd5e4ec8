// Package template loads field templates from YAML files and validates
// them before they are stored.
package template

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contract-review/internal/model"
)

// Load reads and validates a field template from a YAML file.
func Load(path string) (*model.FieldTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "template: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML template document.
func Parse(data []byte) (*model.FieldTemplate, error) {
	var raw struct {
		Name   string `yaml:"name"`
		Fields []struct {
			Name        string `yaml:"name"`
			DisplayName string `yaml:"display_name"`
			Type        string `yaml:"type"`
			Description string `yaml:"description"`
			Required    bool   `yaml:"required"`
		} `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "template: decode yaml")
	}

	tpl := &model.FieldTemplate{Name: strings.TrimSpace(raw.Name)}
	if tpl.Name == "" {
		return nil, eris.New("template: missing name")
	}
	if len(raw.Fields) == 0 {
		return nil, eris.Errorf("template %s: no fields", tpl.Name)
	}

	seen := make(map[string]bool)
	for _, f := range raw.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, eris.Errorf("template %s: field with empty name", tpl.Name)
		}
		if seen[name] {
			return nil, eris.Errorf("template %s: duplicate field %s", tpl.Name, name)
		}
		seen[name] = true

		display := strings.TrimSpace(f.DisplayName)
		if display == "" {
			display = strings.ReplaceAll(name, "_", " ")
		}
		tpl.Fields = append(tpl.Fields, model.FieldDefinition{
			Name:        name,
			DisplayName: display,
			Type:        model.ParseFieldType(f.Type),
			Description: strings.TrimSpace(f.Description),
			Required:    f.Required,
		})
	}
	return tpl, nil
}
