package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

func extractedProject(t *testing.T) (*Service, *model.Project, string, []*model.ExtractionResult) {
	t.Helper()
	svc, st := newTestService(t)
	ctx := context.Background()
	p := setupProject(t, st)

	doc, err := svc.IngestDocument(ctx, p.ID, "lease_a.txt",
		"This Agreement shall be governed by the laws of the State of Delaware. The lease commences on January 15, 2024.")
	require.NoError(t, err)
	results, err := svc.ExtractProject(ctx, p.ID)
	require.NoError(t, err)
	return svc, p, doc.ID, results
}

func findResult(t *testing.T, results []*model.ExtractionResult, field string) *model.ExtractionResult {
	t.Helper()
	for _, r := range results {
		if r.FieldName == field {
			return r
		}
	}
	t.Fatalf("no result for field %s", field)
	return nil
}

func TestService_EvaluateExtraction_Agreement(t *testing.T) {
	svc, p, docID, _ := extractedProject(t)

	eval, err := svc.EvaluateExtraction(context.Background(), p.ID, docID, "governing_law", "The State of Delaware")
	require.NoError(t, err)
	assert.Equal(t, "The State of Delaware", eval.ModelValue)
	assert.Equal(t, 1.0, eval.MatchScore)
	assert.True(t, eval.NormalizedMatch)
}

func TestService_EvaluateExtraction_Disagreement(t *testing.T) {
	svc, p, docID, _ := extractedProject(t)

	eval, err := svc.EvaluateExtraction(context.Background(), p.ID, docID, "governing_law", "Texas")
	require.NoError(t, err)
	assert.Less(t, eval.MatchScore, 0.8)
	assert.False(t, eval.NormalizedMatch)
}

func TestService_EvaluateExtraction_UnknownField(t *testing.T) {
	svc, p, docID, _ := extractedProject(t)

	_, err := svc.EvaluateExtraction(context.Background(), p.ID, docID, "no_such_field", "x")
	assert.ErrorContains(t, err, "no extraction")
}

func TestService_EvaluateProjectReviews(t *testing.T) {
	svc, p, _, results := extractedProject(t)
	ctx := context.Background()

	law := findResult(t, results, "governing_law")
	date := findResult(t, results, "commencement_date")
	require.NoError(t, svc.store.UpdateExtractionReview(ctx, law.ID, model.ExtractionStatusConfirmed, ""))
	require.NoError(t, svc.store.UpdateExtractionReview(ctx, date.ID, model.ExtractionStatusManualUpdated, "2024-02-01"))

	report, err := svc.EvaluateProjectReviews(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Metrics.TotalFields)
	assert.Equal(t, 1, report.Metrics.MatchedFields)
	assert.Equal(t, 0.5, report.Metrics.FieldAccuracy)
	require.Len(t, report.FieldResults, 2)

	// The manual update is scored as the original extraction against the
	// reviewer's replacement, not as a trivial self-match.
	evals, err := svc.store.ListEvaluations(ctx, p.ID)
	require.NoError(t, err)
	for _, e := range evals {
		if e.FieldName == "commencement_date" {
			assert.Equal(t, "2024-01-15", e.ModelValue)
			assert.Equal(t, "2024-02-01", e.HumanValue)
			assert.False(t, e.NormalizedMatch)
		}
	}
}

func TestService_EvaluationReport_Empty(t *testing.T) {
	svc, p, _, _ := extractedProject(t)

	_, err := svc.EvaluationReport(context.Background(), p.ID)
	assert.ErrorContains(t, err, "no evaluations")
}
