package provider

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/contract-review/internal/model"
)

// OpenAIProvider is the secondary cascade tier, used when every Claude tier
// has failed or scored below threshold.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

// OpenAIOptions configures the secondary provider. BaseURL is overridable
// for OpenAI-compatible gateways and for tests.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAI builds the secondary provider tier.
func NewOpenAI(name string, opts OpenAIOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	modelID := opts.Model
	if modelID == "" {
		modelID = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  modelID,
		name:   name,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Extract(ctx context.Context, req Request) (model.Candidate, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return model.Candidate{}, eris.Wrapf(err, "provider %s: extract %s", p.name, req.FieldName)
	}
	if len(resp.Choices) == 0 {
		return model.Candidate{}, eris.New("provider: empty completion")
	}

	cand, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return model.Candidate{}, err
	}
	cand.Source = p.name
	return cand, nil
}
