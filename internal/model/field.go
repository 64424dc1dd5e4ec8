package model

import "strings"

// FieldType identifies how an extracted value is normalized and validated.
type FieldType string

const (
	FieldTypeText        FieldType = "TEXT"
	FieldTypeDate        FieldType = "DATE"
	FieldTypeCurrency    FieldType = "CURRENCY"
	FieldTypePercentage  FieldType = "PERCENTAGE"
	FieldTypeEntity      FieldType = "ENTITY"
	FieldTypeBoolean     FieldType = "BOOLEAN"
	FieldTypeMultiSelect FieldType = "MULTI_SELECT"
	FieldTypeFreeform    FieldType = "FREEFORM"
)

// ParseFieldType maps a string onto a FieldType, defaulting to TEXT.
func ParseFieldType(s string) FieldType {
	switch ft := FieldType(strings.ToUpper(strings.TrimSpace(s))); ft {
	case FieldTypeText, FieldTypeDate, FieldTypeCurrency, FieldTypePercentage,
		FieldTypeEntity, FieldTypeBoolean, FieldTypeMultiSelect, FieldTypeFreeform:
		return ft
	default:
		return FieldTypeText
	}
}

// FieldDefinition describes one field to extract from every document.
// Definitions are immutable once referenced by an extraction; template
// changes create a new template version rather than mutating in place.
type FieldDefinition struct {
	Name        string    `json:"name" yaml:"name"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

// Aliases returns the lookup aliases for heuristic matching: the field name,
// the display name, and underscore-to-space variants of each.
func (f FieldDefinition) Aliases() []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range []string{f.Name, f.DisplayName} {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
		if strings.Contains(a, "_") {
			spaced := strings.ReplaceAll(a, "_", " ")
			if !seen[spaced] {
				seen[spaced] = true
				out = append(out, spaced)
			}
		}
	}
	return out
}

// FieldTemplate is a named, versioned set of field definitions.
type FieldTemplate struct {
	ID      string            `json:"id" yaml:"id,omitempty"`
	Name    string            `json:"name" yaml:"name"`
	Version int               `json:"version" yaml:"version,omitempty"`
	Fields  []FieldDefinition `json:"fields" yaml:"fields"`
}

// FieldRegistry is an indexed collection of field definitions.
type FieldRegistry struct {
	Fields   []FieldDefinition
	byName   map[string]*FieldDefinition
	required []*FieldDefinition
}

// NewFieldRegistry creates a FieldRegistry with indexed lookups.
func NewFieldRegistry(fields []FieldDefinition) *FieldRegistry {
	r := &FieldRegistry{
		Fields: fields,
		byName: make(map[string]*FieldDefinition, len(fields)),
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		if f.Type == "" {
			f.Type = FieldTypeText
		}
		r.byName[f.Name] = f
		if f.Required {
			r.required = append(r.required, f)
		}
	}
	return r
}

// ByName returns the field definition for the given name, or nil.
func (r *FieldRegistry) ByName(name string) *FieldDefinition {
	return r.byName[name]
}

// Required returns all required field definitions.
func (r *FieldRegistry) Required() []*FieldDefinition {
	return r.required
}
