package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

func TestMatch_DateCatalog(t *testing.T) {
	field := model.FieldDefinition{
		Name:        "effective_date",
		DisplayName: "Effective Date",
		Type:        model.FieldTypeDate,
	}
	text := "This Agreement is effective as of January 15, 2024, by and between Acme Corp and Beta LLC."

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "January 15, 2024", cand.Value)
	assert.Equal(t, 1.0, cand.Confidence)
	assert.Contains(t, cand.RawText, "January 15, 2024")
}

func TestMatch_GoverningLawCatalog(t *testing.T) {
	field := model.FieldDefinition{
		Name:        "governing_law",
		DisplayName: "Governing Law",
		Type:        model.FieldTypeText,
	}
	text := "This Agreement shall be governed by the laws of the State of Delaware."

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "The State of Delaware", cand.Value)
	assert.Equal(t, 1.0, cand.Confidence)
}

func TestMatch_ShortTextWidenedToSentence(t *testing.T) {
	field := model.FieldDefinition{Name: "governing_law", Type: model.FieldTypeText}
	text := "The parties agree to the following. This Agreement shall be governed by the laws of Texas. Venue is elsewhere."

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "This Agreement shall be governed by the laws of Texas", cand.Value)
}

func TestMatch_CurrencyByFieldType(t *testing.T) {
	field := model.FieldDefinition{Name: "purchase_price", Type: model.FieldTypeCurrency}
	text := "The total purchase price is $5,000,000 payable at closing."

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "$5,000,000", cand.Value)
	assert.Equal(t, 1.0, cand.Confidence)
}

func TestMatch_AliasWindowFallback(t *testing.T) {
	field := model.FieldDefinition{
		Name:        "renewal_option",
		DisplayName: "Renewal Option",
		Type:        model.FieldTypeText,
	}
	text := "Renewal Option 2 additional years"

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "2 additional years", cand.Value)
	assert.Equal(t, 0.4, cand.Confidence)
}

func TestMatch_SentenceFallback(t *testing.T) {
	field := model.FieldDefinition{
		Name:        "escalation_clause",
		DisplayName: "Escalation Clause",
		Type:        model.FieldTypeText,
	}
	text := "The agreement includes an escalation clause."

	cand, ok := Match(text, field)
	require.True(t, ok)
	assert.Equal(t, "The agreement includes an escalation clause", cand.Value)
	assert.Equal(t, 0.35, cand.Confidence)
}

func TestMatch_NoMatch(t *testing.T) {
	field := model.FieldDefinition{Name: "imaginary_field", Type: model.FieldTypeText}

	_, ok := Match("Nothing relevant here", field)
	assert.False(t, ok)
}
