package diffengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

func result(docID, field, normalized string, conf float64) *model.ExtractionResult {
	return &model.ExtractionResult{
		DocumentID:      docID,
		FieldName:       field,
		NormalizedValue: normalized,
		ConfidenceScore: conf,
		Status:          model.ExtractionStatusExtracted,
	}
}

func threeDocs() []model.Document {
	return []model.Document{
		{ID: "d1", Filename: "lease_a.txt"},
		{ID: "d2", Filename: "lease_b.txt"},
		{ID: "d3", Filename: "lease_c.txt"},
	}
}

func TestBuild_MajorityAndOutliers(t *testing.T) {
	docs := threeDocs()
	results := []*model.ExtractionResult{
		result("d1", "governing_law", "Delaware", 0.9),
		result("d2", "governing_law", "Delaware", 0.8),
		result("d3", "governing_law", "Texas", 0.7),
	}

	report := Build("proj-1", docs, results)
	require.Len(t, report.FieldDiffs, 1)

	diff := report.FieldDiffs[0]
	assert.Equal(t, "Governing Law", diff.FieldName)
	assert.False(t, diff.IsUnanimous)
	assert.Equal(t, "Delaware", diff.MajorityValue)
	assert.Equal(t, 2, diff.MajorityCount)
	assert.Equal(t, 3, diff.TotalDocuments)
	assert.Equal(t, 2, diff.UniqueValues)
	assert.ElementsMatch(t, []string{"lease_a.txt", "lease_b.txt"}, diff.ValueGroups["Delaware"])

	require.Len(t, diff.Outliers, 1)
	assert.Equal(t, "lease_c.txt", diff.Outliers[0].Document)
	assert.Equal(t, "d3", diff.Outliers[0].DocumentID)
	assert.Equal(t, "Texas", diff.Outliers[0].Value)
	assert.Equal(t, 0.7, diff.Outliers[0].Confidence)

	assert.Equal(t, 1, report.Summary.TotalFields)
	assert.Equal(t, 1, report.Summary.FieldsWithDifferences)
	assert.Equal(t, 0.0, report.Summary.UnanimityRate)
}

func TestBuild_Unanimous(t *testing.T) {
	docs := threeDocs()
	results := []*model.ExtractionResult{
		result("d1", "term_years", "5", 0.9),
		result("d2", "term_years", "5", 0.9),
		result("d3", "term_years", "5", 0.9),
	}

	report := Build("proj-1", docs, results)
	diff := report.FieldDiffs[0]
	assert.True(t, diff.IsUnanimous)
	assert.Equal(t, 1, diff.UniqueValues)
	assert.Empty(t, diff.Outliers)
	assert.Equal(t, 1.0, report.Summary.UnanimityRate)
}

func TestBuild_TieBreaksLexicographically(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", Filename: "a.txt"},
		{ID: "d2", Filename: "b.txt"},
	}
	results := []*model.ExtractionResult{
		result("d1", "governing_law", "Texas", 0.9),
		result("d2", "governing_law", "Delaware", 0.9),
	}

	diff := Build("proj-1", docs, results).FieldDiffs[0]
	assert.Equal(t, "Delaware", diff.MajorityValue)
	assert.Equal(t, 1, diff.MajorityCount)
}

func TestBuild_MissingResultBecomesNA(t *testing.T) {
	docs := threeDocs()
	results := []*model.ExtractionResult{
		result("d1", "notice_period", "30 days", 0.9),
		result("d2", "notice_period", "30 days", 0.9),
	}

	diff := Build("proj-1", docs, results).FieldDiffs[0]
	assert.Equal(t, "N/A", diff.DocumentValues["lease_c.txt"].Value)
	assert.Equal(t, "30 days", diff.MajorityValue)
	require.Len(t, diff.Outliers, 1)
	assert.Equal(t, "lease_c.txt", diff.Outliers[0].Document)
}

func TestBuild_EffectiveValueFallsBackToExtracted(t *testing.T) {
	docs := []model.Document{{ID: "d1", Filename: "a.txt"}}
	results := []*model.ExtractionResult{{
		DocumentID:     "d1",
		FieldName:      "assignment",
		ExtractedValue: "Consent required",
	}}

	diff := Build("proj-1", docs, results).FieldDiffs[0]
	assert.Equal(t, "Consent required", diff.DocumentValues["a.txt"].Value)
}

func TestBuild_SimilarityPairs(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", Filename: "a.txt"},
		{ID: "d2", Filename: "b.txt"},
		{ID: "d3", Filename: "c.txt"},
	}
	results := []*model.ExtractionResult{
		result("d1", "governing_law", "Delaware", 0.9),
		result("d2", "governing_law", "delaware", 0.9),
		result("d3", "governing_law", "", 0.0),
	}

	diff := Build("proj-1", docs, results).FieldDiffs[0]
	require.Len(t, diff.SimilarityPairs, 3)

	// Case-insensitive identical values score 1.
	assert.Equal(t, "a.txt", diff.SimilarityPairs[0].DocA)
	assert.Equal(t, "b.txt", diff.SimilarityPairs[0].DocB)
	assert.Equal(t, 1.0, diff.SimilarityPairs[0].Similarity)
}

func TestBuild_FieldOrderFollowsFirstAppearance(t *testing.T) {
	docs := []model.Document{{ID: "d1", Filename: "a.txt"}}
	results := []*model.ExtractionResult{
		result("d1", "beta_field", "x", 0.9),
		result("d1", "alpha_field", "y", 0.9),
	}

	report := Build("proj-1", docs, results)
	require.Len(t, report.FieldDiffs, 2)
	assert.Equal(t, "Beta Field", report.FieldDiffs[0].FieldName)
	assert.Equal(t, "Alpha Field", report.FieldDiffs[1].FieldName)
}

func TestLCSRatio(t *testing.T) {
	assert.Equal(t, 1.0, lcsRatio("", ""))
	assert.Equal(t, 0.0, lcsRatio("abc", ""))
	assert.Equal(t, 1.0, lcsRatio("Delaware", "DELAWARE"))
	// LCS("abcd","abed") = "abd", ratio 2*3/8.
	assert.InDelta(t, 0.75, lcsRatio("abcd", "abed"), 1e-9)
}

func TestDisplayFieldName(t *testing.T) {
	assert.Equal(t, "Governing Law", DisplayFieldName("governing_law"))
	assert.Equal(t, "Term", DisplayFieldName("term"))
}

func TestBuild_GroupsByDisplayName(t *testing.T) {
	docs := threeDocs()
	// Raw field names that render to the same display label must land in
	// one row, not two.
	results := []*model.ExtractionResult{
		result("d1", "effective_date", "2024-01-15", 0.9),
		result("d2", "Effective Date", "2024-01-15", 0.9),
		result("d3", "effective date", "2024-01-15", 0.9),
	}

	report := Build("proj-1", docs, results)
	require.Len(t, report.FieldDiffs, 1)

	diff := report.FieldDiffs[0]
	assert.Equal(t, "Effective Date", diff.FieldName)
	assert.True(t, diff.IsUnanimous)
	assert.Equal(t, "2024-01-15", diff.MajorityValue)
	assert.Equal(t, 3, diff.MajorityCount)
}
