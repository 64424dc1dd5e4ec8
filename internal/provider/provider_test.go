package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
)

func TestParseResponse(t *testing.T) {
	cand, err := parseResponse(`{"value": "Delaware", "raw_text": " governed by the laws of Delaware ", "confidence": 0.85}`)
	require.NoError(t, err)
	assert.Equal(t, "Delaware", cand.Value)
	assert.Equal(t, "governed by the laws of Delaware", cand.RawText)
	assert.Equal(t, 0.85, cand.Confidence)
}

func TestParseResponse_CodeFence(t *testing.T) {
	cand, err := parseResponse("```json\n{\"value\": \"2024-01-15\", \"raw_text\": \"dated January 15, 2024\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", cand.Value)
	assert.Equal(t, 0.9, cand.Confidence)
}

func TestParseResponse_SurroundingProse(t *testing.T) {
	cand, err := parseResponse(`Sure, here is the result: {"value": "net 30", "raw_text": "Payment terms: net 30"} hope that helps`)
	require.NoError(t, err)
	assert.Equal(t, "net 30", cand.Value)
}

func TestParseResponse_NonStringValues(t *testing.T) {
	cand, err := parseResponse(`{"value": true, "raw_text": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, "true", cand.Value)

	cand, err = parseResponse(`{"value": 5000000, "raw_text": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, "5000000", cand.Value)

	cand, err = parseResponse(`{"value": null, "raw_text": "x"}`)
	require.NoError(t, err)
	assert.Empty(t, cand.Value)

	cand, err = parseResponse(`{"value": "null", "raw_text": "x"}`)
	require.NoError(t, err)
	assert.Empty(t, cand.Value)
}

func TestParseResponse_ConfidenceClamped(t *testing.T) {
	cand, err := parseResponse(`{"value": "x", "raw_text": "x", "confidence": 1.7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cand.Confidence)

	// Anything below 0.1 alongside a real value is treated as missing.
	for _, body := range []string{
		`{"value": "x", "raw_text": "x", "confidence": 0}`,
		`{"value": "x", "raw_text": "x", "confidence": 0.05}`,
		`{"value": "x", "raw_text": "x", "confidence": -0.2}`,
	} {
		cand, err = parseResponse(body)
		require.NoError(t, err)
		assert.Equal(t, 0.9, cand.Confidence, body)
	}

	// No value means nothing to vouch for.
	cand, err = parseResponse(`{"value": "", "raw_text": ""}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cand.Confidence)
}

func TestParseResponse_NoJSON(t *testing.T) {
	_, err := parseResponse("I could not find that field in the document.")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt(Request{
		Excerpt:     "the excerpt body",
		FieldName:   "governing_law",
		DisplayName: "Governing Law",
		FieldType:   model.FieldTypeText,
		Description: "State or country whose law governs",
	})
	assert.Contains(t, got, `"Governing Law"`)
	assert.Contains(t, got, "Field description: State or country whose law governs")
	assert.Contains(t, got, "Field type: TEXT")
	assert.Contains(t, got, "the excerpt body")
}

func TestOpenAIProvider_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Content: `{"value": "Delaware", "raw_text": "laws of Delaware", "confidence": 0.8}`,
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	p := NewOpenAI("openai", OpenAIOptions{APIKey: "test-key", BaseURL: srv.URL})
	cand, err := p.Extract(context.Background(), Request{
		FieldName: "governing_law", DisplayName: "Governing Law", FieldType: model.FieldTypeText,
		Excerpt: "governed by the laws of Delaware",
	})
	require.NoError(t, err)
	assert.Equal(t, "Delaware", cand.Value)
	assert.Equal(t, "openai", cand.Source)
	assert.Equal(t, 0.8, cand.Confidence)
}

type countingProvider struct {
	calls int
	cand  model.Candidate
	err   error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Extract(context.Context, Request) (model.Candidate, error) {
	p.calls++
	return p.cand, p.err
}

func TestCachedProvider_MemoizesSuccess(t *testing.T) {
	inner := &countingProvider{cand: model.Candidate{Value: "Delaware", Confidence: 0.8}}
	p := NewCached(inner, time.Minute)
	req := Request{FieldName: "governing_law", FieldType: model.FieldTypeText, Excerpt: "abc"}

	first, err := p.Extract(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Extract(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_DistinctRequestsMiss(t *testing.T) {
	inner := &countingProvider{cand: model.Candidate{Value: "x"}}
	p := NewCached(inner, time.Minute)

	_, err := p.Extract(context.Background(), Request{FieldName: "a", Excerpt: "same"})
	require.NoError(t, err)
	_, err = p.Extract(context.Background(), Request{FieldName: "b", Excerpt: "same"})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("model unavailable")}
	p := NewCached(inner, time.Minute)
	req := Request{FieldName: "governing_law", Excerpt: "abc"}

	_, err := p.Extract(context.Background(), req)
	require.Error(t, err)
	_, err = p.Extract(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}
