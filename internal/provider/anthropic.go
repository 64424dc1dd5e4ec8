package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-review/internal/model"
	"github.com/sells-group/contract-review/internal/resilience"
	"github.com/sells-group/contract-review/pkg/anthropic"
)

const defaultMaxTokens = 1024

// AnthropicProvider answers extraction requests through one Claude model.
// The cascade instantiates one per tier.
type AnthropicProvider struct {
	client   anthropic.Client
	model    string
	name     string
	retryCfg resilience.RetryConfig
}

// NewAnthropic builds a provider tier for the given model ID. The name is
// used in attempt trails, e.g. "claude_haiku". Transient API failures are
// retried per retryCfg before the tier reports an error to the cascade.
func NewAnthropic(client anthropic.Client, name, modelID string, retryCfg resilience.RetryConfig) *AnthropicProvider {
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = resilience.RetryLogger(name, "extract")
	}
	return &AnthropicProvider{client: client, model: modelID, name: name, retryCfg: retryCfg}
}

func (p *AnthropicProvider) Name() string { return p.name }

func (p *AnthropicProvider) Extract(ctx context.Context, req Request) (model.Candidate, error) {
	resp, err := resilience.DoVal(ctx, p.retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     p.model,
			MaxTokens: defaultMaxTokens,
			System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: buildPrompt(req)},
			},
		})
	})
	if err != nil {
		return model.Candidate{}, eris.Wrapf(err, "provider %s: extract %s", p.name, req.FieldName)
	}

	resp.Usage.LogCost(p.model, "extract")

	cand, err := parseResponse(resp.Text())
	if err != nil {
		zap.L().Debug("unparseable completion",
			zap.String("provider", p.name),
			zap.String("field", req.FieldName),
			zap.Error(err),
		)
		return model.Candidate{}, err
	}
	cand.Source = p.name
	return cand, nil
}
