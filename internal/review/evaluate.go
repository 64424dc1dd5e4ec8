package review

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-review/internal/diffengine"
	"github.com/sells-group/contract-review/internal/model"
)

// matchThreshold is the similarity score above which a model value counts
// as agreeing with the human reference.
const matchThreshold = 0.8

// EvaluateExtraction scores one extraction against a human reference value
// and stores the result. Re-evaluating the same (document, field) pair
// replaces the prior score.
func (s *Service) EvaluateExtraction(ctx context.Context, projectID, documentID, fieldName, humanValue string) (*model.Evaluation, error) {
	results, err := s.store.ListDocumentExtractions(ctx, documentID)
	if err != nil {
		return nil, err
	}
	var target *model.ExtractionResult
	for _, r := range results {
		if r.ProjectID == projectID && r.FieldName == fieldName {
			target = r
			break
		}
	}
	if target == nil {
		return nil, eris.Errorf("review: no extraction for field %s in document %s", fieldName, documentID)
	}
	return s.saveEvaluation(ctx, target, modelValue(target), humanValue)
}

// EvaluateProjectReviews scores every reviewed extraction in the project
// against the reviewer's decision, then returns the evaluation report.
// Confirmed results count as agreement; manually updated results are scored
// as the original value against the reviewer's replacement. Pending and
// rejected results are skipped.
func (s *Service) EvaluateProjectReviews(ctx context.Context, projectID string) (*model.EvaluationReport, error) {
	results, err := s.store.ListExtractions(ctx, projectID)
	if err != nil {
		return nil, err
	}

	evaluated := 0
	for _, r := range results {
		var human string
		switch r.Status {
		case model.ExtractionStatusConfirmed:
			human = modelValue(r)
		case model.ExtractionStatusManualUpdated:
			human = effectiveValue(r)
		default:
			continue
		}
		if _, err := s.saveEvaluation(ctx, r, modelValue(r), human); err != nil {
			return nil, err
		}
		evaluated++
	}

	zap.L().Info("project reviews evaluated",
		zap.String("project_id", projectID),
		zap.Int("evaluated", evaluated),
	)
	return s.EvaluationReport(ctx, projectID)
}

// EvaluationReport aggregates the project's stored evaluations into overall
// and per-field accuracy.
func (s *Service) EvaluationReport(ctx context.Context, projectID string) (*model.EvaluationReport, error) {
	evals, err := s.store.ListEvaluations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, eris.Errorf("review: project %s has no evaluations", projectID)
	}

	report := &model.EvaluationReport{
		ProjectID:   projectID,
		GeneratedAt: time.Now().UTC(),
	}

	byField := make(map[string]*model.FieldAccuracy)
	var fieldOrder []string
	var scoreSum float64
	for _, e := range evals {
		fa := byField[e.FieldName]
		if fa == nil {
			fa = &model.FieldAccuracy{FieldName: e.FieldName}
			byField[e.FieldName] = fa
			fieldOrder = append(fieldOrder, e.FieldName)
		}
		fa.Total++
		if e.NormalizedMatch {
			fa.Matched++
			report.Metrics.MatchedFields++
		}
		scoreSum += e.MatchScore
	}

	report.Metrics.TotalFields = len(evals)
	report.Metrics.FieldAccuracy = float64(report.Metrics.MatchedFields) / float64(len(evals))
	report.Metrics.AverageMatchScore = scoreSum / float64(len(evals))

	sort.Strings(fieldOrder)
	for _, name := range fieldOrder {
		fa := byField[name]
		fa.Accuracy = float64(fa.Matched) / float64(fa.Total)
		report.FieldResults = append(report.FieldResults, *fa)
	}
	return report, nil
}

func (s *Service) saveEvaluation(ctx context.Context, r *model.ExtractionResult, modelVal, humanValue string) (*model.Evaluation, error) {
	score := matchScore(modelVal, humanValue)
	eval := &model.Evaluation{
		ProjectID:       r.ProjectID,
		DocumentID:      r.DocumentID,
		FieldName:       r.FieldName,
		ModelValue:      modelVal,
		HumanValue:      humanValue,
		MatchScore:      score,
		NormalizedMatch: score > matchThreshold,
	}
	if err := s.store.SaveEvaluation(ctx, eval); err != nil {
		return nil, err
	}
	return eval, nil
}

// modelValue is the value the extractor produced, before any reviewer
// override.
func modelValue(r *model.ExtractionResult) string {
	if r.Metadata.PreviousValue != "" {
		return r.Metadata.PreviousValue
	}
	return effectiveValue(r)
}

func effectiveValue(r *model.ExtractionResult) string {
	if v := strings.TrimSpace(r.NormalizedValue); v != "" {
		return v
	}
	return strings.TrimSpace(r.ExtractedValue)
}

// matchScore is 1.0 for equal trimmed case-insensitive values, 0.0 when
// exactly one side is empty, and the similarity ratio otherwise.
func matchScore(modelVal, humanValue string) float64 {
	a := strings.TrimSpace(modelVal)
	b := strings.TrimSpace(humanValue)
	if a == "" || b == "" {
		if a == b {
			return 1.0
		}
		return 0.0
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return diffengine.SimilarityRatio(a, b)
}
