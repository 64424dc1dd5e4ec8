package extractor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/provider"
)

type fakeProvider struct {
	name  string
	cand  model.Candidate
	err   error
	calls atomic.Int64
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Extract(ctx context.Context, req provider.Request) (model.Candidate, error) {
	p.calls.Add(1)
	if p.err != nil {
		return model.Candidate{}, p.err
	}
	cand := p.cand
	cand.Source = p.name
	return cand, nil
}

func fastOpts() Options {
	return Options{Concurrency: 2, RatePerSecond: 1000}
}

func testDoc(text string) *model.Document {
	return &model.Document{ID: "doc-1", ProjectID: "proj-1", Filename: "a.txt", Text: text}
}

func TestExtractDocument_FirstTierWins(t *testing.T) {
	first := &fakeProvider{name: "tier_a", cand: model.Candidate{
		Value: "Delaware", RawText: "governed by the laws of Delaware", Confidence: 0.9,
	}}
	second := &fakeProvider{name: "tier_b"}
	e := New([]provider.Provider{first, second}, fastOpts())

	doc := testDoc("This Agreement shall be governed by the laws of Delaware.")
	chunks := []model.TextChunk{{Index: 0, Text: doc.Text, PageNumber: 1}}
	fields := []model.FieldDefinition{{Name: "governing_law", DisplayName: "Governing Law", Type: model.FieldTypeText}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, chunks)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "Delaware", r.ExtractedValue)
	assert.Equal(t, "Delaware", r.NormalizedValue)
	assert.Equal(t, 0.9, r.ConfidenceScore)
	assert.Equal(t, model.ExtractionStatusExtracted, r.Status)
	assert.Equal(t, "tier_a", r.Metadata.Method)
	assert.NotEmpty(t, r.Citations)
	assert.EqualValues(t, 0, second.calls.Load())
}

func TestExtractDocument_LowConfidenceFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "tier_a", cand: model.Candidate{Value: "Delaware", Confidence: 0.05}}
	second := &fakeProvider{name: "tier_b", cand: model.Candidate{Value: "Delaware", Confidence: 0.8}}
	e := New([]provider.Provider{first, second}, fastOpts())

	doc := testDoc("governed by the laws of Delaware")
	fields := []model.FieldDefinition{{Name: "governing_law", Type: model.FieldTypeText}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, "tier_b", r.Metadata.Method)
	require.Len(t, r.Metadata.Attempts, 2)
	assert.True(t, r.Metadata.Attempts[0].Failed)
	assert.Equal(t, "confidence below threshold", r.Metadata.Attempts[0].Reason)
	assert.False(t, r.Metadata.Attempts[1].Failed)
}

func TestExtractDocument_TierErrorFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "tier_a", err: errors.New("model overloaded")}
	second := &fakeProvider{name: "tier_b", cand: model.Candidate{Value: "Delaware", Confidence: 0.8}}
	e := New([]provider.Provider{first, second}, fastOpts())

	doc := testDoc("governed by the laws of Delaware")
	fields := []model.FieldDefinition{{Name: "governing_law", Type: model.FieldTypeText}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, "tier_b", r.Metadata.Method)
	require.Len(t, r.Metadata.Attempts, 2)
	assert.True(t, r.Metadata.Attempts[0].Failed)
	assert.Contains(t, r.Metadata.Attempts[0].Reason, "model overloaded")
}

func TestExtractDocument_NoiseAnswerFallsToHeuristic(t *testing.T) {
	first := &fakeProvider{name: "tier_a", cand: model.Candidate{Value: "N/A", Confidence: 0.9}}
	e := New([]provider.Provider{first}, fastOpts())

	doc := testDoc("This Agreement shall be governed by the laws of the State of Delaware.")
	fields := []model.FieldDefinition{{Name: "governing_law", Type: model.FieldTypeText}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, HeuristicSource, r.Metadata.Method)
	assert.Equal(t, "The State of Delaware", r.ExtractedValue)
	require.Len(t, r.Metadata.Attempts, 2)
	assert.Equal(t, "noise phrase", r.Metadata.Attempts[0].Reason)
}

func TestExtractDocument_AllTiersFail(t *testing.T) {
	first := &fakeProvider{name: "tier_a", err: errors.New("down")}
	e := New([]provider.Provider{first}, fastOpts())

	doc := testDoc("Nothing relevant in this document at all.")
	fields := []model.FieldDefinition{{Name: "imaginary_field", Type: model.FieldTypeText}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, model.ExtractionStatusMissingData, r.Status)
	assert.Zero(t, r.ConfidenceScore)
	assert.Empty(t, r.ExtractedValue)
	assert.Equal(t, "none", r.Metadata.Method)
	require.Len(t, r.Metadata.Attempts, 2)
	assert.Equal(t, "no pattern matched", r.Metadata.Attempts[1].Reason)
}

func TestExtractDocument_EmptyText(t *testing.T) {
	e := New(nil, fastOpts())
	_, err := e.ExtractDocument(context.Background(), testDoc("   "), nil, nil)
	assert.Error(t, err)
}

func TestExtractDocument_ValidationFactorApplied(t *testing.T) {
	doc := testDoc("The lease commences on January 15, 2024 and runs for five years.")

	canonical := &fakeProvider{name: "tier_a", cand: model.Candidate{Value: "January 15, 2024", Confidence: 0.8}}
	e := New([]provider.Provider{canonical}, fastOpts())
	fields := []model.FieldDefinition{{Name: "commencement_date", Type: model.FieldTypeDate}}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)
	r := results[0]
	assert.Equal(t, "2024-01-15", r.NormalizedValue)
	assert.InDelta(t, 0.8, r.ConfidenceScore, 1e-9)

	// An unparseable date keeps its text but is penalized.
	vague := &fakeProvider{name: "tier_a", cand: model.Candidate{Value: "upon closing", Confidence: 0.8}}
	e = New([]provider.Provider{vague}, fastOpts())

	results, err = e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)
	r = results[0]
	assert.Equal(t, "upon closing", r.NormalizedValue)
	assert.InDelta(t, 0.8*0.6, r.ConfidenceScore, 1e-9)
}

func TestExtractDocument_ResultsAlignWithFields(t *testing.T) {
	first := &fakeProvider{name: "tier_a", cand: model.Candidate{Value: "Delaware", Confidence: 0.9}}
	e := New([]provider.Provider{first}, fastOpts())

	doc := testDoc("governed by the laws of Delaware")
	fields := []model.FieldDefinition{
		{Name: "governing_law", Type: model.FieldTypeText},
		{Name: "governing_law_two", Type: model.FieldTypeText},
	}

	results, err := e.ExtractDocument(context.Background(), doc, fields, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "governing_law", results[0].FieldName)
	assert.Equal(t, "governing_law_two", results[1].FieldName)
	assert.Equal(t, model.ExtractionStatusExtracted, results[0].Status)
	assert.Equal(t, model.ExtractionStatusExtracted, results[1].Status)
}
