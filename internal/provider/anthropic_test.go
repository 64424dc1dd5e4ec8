package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/resilience"
	"github.com/sells-group/contract-review/pkg/anthropic"
)

type fakeAnthropicClient struct {
	req   anthropic.MessageRequest
	resp  *anthropic.MessageResponse
	err   error
	calls int
}

func (c *fakeAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.req = req
	c.calls++
	return c.resp, c.err
}

func newTestAnthropic(client anthropic.Client) *AnthropicProvider {
	return NewAnthropic(client, "claude_haiku", "claude-haiku-4-5-20251001",
		resilience.RetryConfig{MaxAttempts: 1})
}

func TestAnthropicProvider_Extract(t *testing.T) {
	client := &fakeAnthropicClient{
		resp: &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{
				Type: "text",
				Text: `{"value": "Delaware", "raw_text": "laws of Delaware", "confidence": 0.95}`,
			}},
		},
	}
	p := newTestAnthropic(client)

	cand, err := p.Extract(context.Background(), Request{
		FieldName: "governing_law", DisplayName: "Governing Law",
		FieldType: model.FieldTypeText, Excerpt: "governed by the laws of Delaware",
	})
	require.NoError(t, err)
	assert.Equal(t, "Delaware", cand.Value)
	assert.Equal(t, "claude_haiku", cand.Source)
	assert.Equal(t, 0.95, cand.Confidence)

	// The system prompt carries a cache breakpoint and the excerpt reaches
	// the user message.
	require.Len(t, client.req.System, 1)
	assert.NotNil(t, client.req.System[0].CacheControl)
	require.Len(t, client.req.Messages, 1)
	assert.Contains(t, client.req.Messages[0].Content, "governed by the laws of Delaware")
	assert.Equal(t, "claude-haiku-4-5-20251001", client.req.Model)
}

func TestAnthropicProvider_Error(t *testing.T) {
	client := &fakeAnthropicClient{err: errors.New("overloaded")}
	p := newTestAnthropic(client)

	_, err := p.Extract(context.Background(), Request{FieldName: "governing_law"})
	assert.ErrorContains(t, err, "overloaded")
}

func TestAnthropicProvider_UnparseableCompletion(t *testing.T) {
	client := &fakeAnthropicClient{
		resp: &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "no json here"}},
		},
	}
	p := newTestAnthropic(client)

	_, err := p.Extract(context.Background(), Request{FieldName: "governing_law"})
	assert.Error(t, err)
}

type flakyAnthropicClient struct {
	failures int
	calls    int
	resp     *anthropic.MessageResponse
}

func (c *flakyAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, resilience.NewTransientError(errors.New("overloaded"), 529)
	}
	return c.resp, nil
}

func TestAnthropicProvider_RetriesTransientErrors(t *testing.T) {
	client := &flakyAnthropicClient{
		failures: 2,
		resp: &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{
				Type: "text",
				Text: `{"value": "Delaware", "raw_text": "laws of Delaware", "confidence": 0.9}`,
			}},
		},
	}
	p := NewAnthropic(client, "claude_haiku", "claude-haiku-4-5-20251001", resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	cand, err := p.Extract(context.Background(), Request{FieldName: "governing_law"})
	require.NoError(t, err)
	assert.Equal(t, "Delaware", cand.Value)
	assert.Equal(t, 3, client.calls)
}

func TestAnthropicProvider_DoesNotRetryPermanentErrors(t *testing.T) {
	client := &fakeAnthropicClient{err: errors.New("invalid api key")}
	p := NewAnthropic(client, "claude_haiku", "claude-haiku-4-5-20251001", resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	_, err := p.Extract(context.Background(), Request{FieldName: "governing_law"})
	assert.ErrorContains(t, err, "invalid api key")
	assert.Equal(t, 1, client.calls)
}
