package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

const validTemplate = `
name: commercial_lease
fields:
  - name: governing_law
    display_name: Governing Law
    type: TEXT
    description: State or country whose law governs
    required: true
  - name: commencement_date
    type: date
  - name: base_rent
    type: CURRENCY
`

func TestParse(t *testing.T) {
	tpl, err := Parse([]byte(validTemplate))
	require.NoError(t, err)

	assert.Equal(t, "commercial_lease", tpl.Name)
	require.Len(t, tpl.Fields, 3)

	law := tpl.Fields[0]
	assert.Equal(t, "governing_law", law.Name)
	assert.Equal(t, "Governing Law", law.DisplayName)
	assert.Equal(t, model.FieldTypeText, law.Type)
	assert.True(t, law.Required)

	// Display name derived from the field name, type parsed case-insensitively.
	date := tpl.Fields[1]
	assert.Equal(t, "commencement date", date.DisplayName)
	assert.Equal(t, model.FieldTypeDate, date.Type)

	assert.Equal(t, model.FieldTypeCurrency, tpl.Fields[2].Type)
}

func TestParse_MissingName(t *testing.T) {
	_, err := Parse([]byte("fields:\n  - name: a\n"))
	assert.ErrorContains(t, err, "missing name")
}

func TestParse_NoFields(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorContains(t, err, "no fields")
}

func TestParse_DuplicateField(t *testing.T) {
	_, err := Parse([]byte("name: dup\nfields:\n  - name: a\n  - name: a\n"))
	assert.ErrorContains(t, err, "duplicate field a")
}

func TestParse_EmptyFieldName(t *testing.T) {
	_, err := Parse([]byte("name: bad\nfields:\n  - display_name: X\n"))
	assert.ErrorContains(t, err, "empty name")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validTemplate), 0o644))

	tpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "commercial_lease", tpl.Name)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
