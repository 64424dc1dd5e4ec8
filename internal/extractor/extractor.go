// Package extractor runs the tiered field-extraction cascade over a
// document: external model tiers in priority order, a heuristic pattern
// backstop, then cleaning, normalization, confidence validation, and
// citation ranking for each field.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/contract-review/internal/citation"
	"github.com/sells-group/contract-review/internal/heuristic"
	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/provider"
	"github.com/sells-group/contract-review/internal/textnorm"
)

const (
	// minTierConfidence is the floor below which a tier's answer is treated
	// as a failure and the cascade continues.
	minTierConfidence = 0.1

	// HeuristicSource tags results produced by the pattern backstop.
	HeuristicSource = "heuristic_fallback"

	// maxExcerptChars bounds how much document text is sent to a provider.
	maxExcerptChars = 12000
)

// Options tune the extractor. Zero values fall back to defaults.
type Options struct {
	// Concurrency bounds how many fields are extracted in parallel per
	// document. Default 4.
	Concurrency int

	// CallTimeout bounds each individual provider call. Default 60s.
	CallTimeout time.Duration

	// RatePerSecond throttles provider calls across all fields and
	// documents. Default 5.
	RatePerSecond float64

	// TopK is the number of citations kept per extraction. Default 3.
	TopK int
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 60 * time.Second
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 5
	}
	if o.TopK <= 0 {
		o.TopK = citation.DefaultTopK
	}
	return o
}

// Extractor runs the cascade. Providers are tried in slice order; the
// heuristic backstop always runs last when no provider tier produced a
// usable value.
type Extractor struct {
	providers []provider.Provider
	limiter   *rate.Limiter
	opts      Options
}

// New builds an extractor over the given ordered provider tiers. The rate
// limiter is shared across every field and document this extractor touches.
func New(providers []provider.Provider, opts Options) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{
		providers: providers,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		opts:      opts,
	}
}

// ExtractDocument extracts every field against one document. Fields run in
// parallel up to the configured concurrency; each field failure is isolated
// into its own result rather than aborting the batch. An empty document is
// the one systemic error that fails the whole call.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *model.Document, fields []model.FieldDefinition, chunks []model.TextChunk) ([]*model.ExtractionResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, eris.Errorf("extractor: document %s has no text", doc.ID)
	}

	results := make([]*model.ExtractionResult, len(fields))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, field := range fields {
		g.Go(func() error {
			results[i] = e.extractField(gctx, doc, field, chunks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractField runs the full cascade for one field. A panic in any tier is
// contained to a null result carrying the error.
func (e *Extractor) extractField(ctx context.Context, doc *model.Document, field model.FieldDefinition, chunks []model.TextChunk) (result *model.ExtractionResult) {
	var attempts []model.Attempt

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("field extraction panicked",
				zap.String("document_id", doc.ID),
				zap.String("field", field.Name),
				zap.Any("panic", r),
			)
			result = e.missingResult(doc, field, attempts, fmt.Sprintf("panic: %v", r))
		}
	}()

	excerpt := doc.Text
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}
	req := provider.Request{
		Excerpt:     excerpt,
		FieldName:   field.Name,
		DisplayName: field.DisplayName,
		FieldType:   field.Type,
		Description: field.Description,
	}

	var winner model.Candidate
	for _, p := range e.providers {
		cand, err := e.callTier(ctx, p, req)
		if err != nil {
			attempts = append(attempts, model.Attempt{
				Source: p.Name(), Failed: true, Reason: err.Error(),
			})
			continue
		}
		if reason := rejectCandidate(cand); reason != "" {
			attempts = append(attempts, model.Attempt{
				Source: p.Name(), Confidence: cand.Confidence, Failed: true, Reason: reason,
			})
			continue
		}
		attempts = append(attempts, model.Attempt{Source: p.Name(), Confidence: cand.Confidence})
		winner = cand
		break
	}

	if winner.Empty() {
		if cand, ok := heuristic.Match(doc.Text, field); ok {
			cand.Source = HeuristicSource
			attempts = append(attempts, model.Attempt{Source: HeuristicSource, Confidence: cand.Confidence})
			winner = cand
		} else {
			attempts = append(attempts, model.Attempt{Source: HeuristicSource, Failed: true, Reason: "no pattern matched"})
		}
	}

	if winner.Empty() {
		return e.missingResult(doc, field, attempts, "")
	}

	cleaned := textnorm.Clean(winner.Value, field.Type)
	if cleaned == "" || textnorm.IsNoise(cleaned) {
		return e.missingResult(doc, field, attempts, "")
	}

	normalized := textnorm.Normalize(cleaned, field.Type)
	confidence := winner.Confidence * textnorm.ValidationFactor(cleaned, normalized, field.Type)
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	query := winner.RawText
	if query == "" {
		query = cleaned
	}
	citations := citation.Rank(query, chunks, e.opts.TopK)

	return &model.ExtractionResult{
		ID:              uuid.NewString(),
		ProjectID:       doc.ProjectID,
		DocumentID:      doc.ID,
		FieldName:       field.Name,
		FieldType:       field.Type,
		ExtractedValue:  cleaned,
		RawText:         winner.RawText,
		NormalizedValue: normalized,
		ConfidenceScore: confidence,
		Status:          model.ExtractionStatusExtracted,
		Citations:       citations,
		Metadata: model.ExtractionMetadata{
			Method:      winner.Source,
			ExtractedAt: time.Now().UTC(),
			Attempts:    attempts,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// callTier waits on the shared rate limiter, then runs one provider call
// under the per-call timeout.
func (e *Extractor) callTier(ctx context.Context, p provider.Provider, req provider.Request) (model.Candidate, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return model.Candidate{}, eris.Wrap(err, "extractor: rate limit wait")
	}
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()
	return p.Extract(callCtx, req)
}

// rejectCandidate returns a non-empty reason when a tier's answer should
// not stop the cascade.
func rejectCandidate(cand model.Candidate) string {
	switch {
	case cand.Empty():
		return "empty value"
	case textnorm.IsNoise(cand.Value):
		return "noise phrase"
	case cand.Confidence < minTierConfidence:
		return "confidence below threshold"
	default:
		return ""
	}
}

func (e *Extractor) missingResult(doc *model.Document, field model.FieldDefinition, attempts []model.Attempt, errMsg string) *model.ExtractionResult {
	return &model.ExtractionResult{
		ID:              uuid.NewString(),
		ProjectID:       doc.ProjectID,
		DocumentID:      doc.ID,
		FieldName:       field.Name,
		FieldType:       field.Type,
		ConfidenceScore: 0,
		Status:          model.ExtractionStatusMissingData,
		Metadata: model.ExtractionMetadata{
			Method:      "none",
			ExtractedAt: time.Now().UTC(),
			Attempts:    attempts,
			Error:       errMsg,
		},
		CreatedAt: time.Now().UTC(),
	}
}
