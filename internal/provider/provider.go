// Package provider defines the external model providers that power the
// tiered extraction cascade, plus the shared prompt and response plumbing
// they have in common.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contract-review/internal/model"
)

// Request carries one field-extraction question against a document excerpt.
type Request struct {
	Excerpt     string
	FieldName   string
	DisplayName string
	FieldType   model.FieldType
	Description string
}

// Provider answers a single extraction request. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Name identifies the provider tier for attempt trails and logging.
	Name() string
	Extract(ctx context.Context, req Request) (model.Candidate, error)
}

const systemPrompt = `You are a legal document analysis assistant. You extract specific field values from contract text with high precision. Respond only with the requested JSON object and nothing else.`

// buildPrompt renders the user prompt for one field against an excerpt.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract the value of the field %q from the document excerpt below.\n", req.DisplayName)
	if req.Description != "" {
		fmt.Fprintf(&b, "Field description: %s\n", req.Description)
	}
	fmt.Fprintf(&b, "Field type: %s\n\n", req.FieldType)
	b.WriteString("Respond with a JSON object of the form:\n")
	b.WriteString(`{"value": "<extracted value or null>", "raw_text": "<verbatim supporting text>", "confidence": <0.0-1.0>}`)
	b.WriteString("\n\nDocument excerpt:\n")
	b.WriteString(req.Excerpt)
	return b.String()
}

// payload is the wire shape providers are instructed to return. Value is
// decoded loosely because models sometimes emit booleans or numbers.
type payload struct {
	Value      any      `json:"value"`
	RawText    string   `json:"raw_text"`
	Confidence *float64 `json:"confidence"`
}

// parseResponse decodes a provider completion into a candidate. Code fences
// and surrounding prose are tolerated; when a value is present, a reported
// confidence below 0.1 (including missing or zero) is bumped to 0.9.
func parseResponse(text string) (model.Candidate, error) {
	body := stripFences(text)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return model.Candidate{}, eris.New("provider: no JSON object in response")
	}

	var p payload
	if err := json.Unmarshal([]byte(body[start:end+1]), &p); err != nil {
		return model.Candidate{}, eris.Wrap(err, "provider: decode response")
	}

	cand := model.Candidate{
		Value:   stringify(p.Value),
		RawText: strings.TrimSpace(p.RawText),
	}
	conf := 0.0
	if p.Confidence != nil {
		conf = *p.Confidence
	}
	if cand.Value != "" && conf < 0.1 {
		conf = 0.9
	}
	cand.Confidence = clamp01(conf)
	return cand, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if strings.EqualFold(t, "null") {
			return ""
		}
		return strings.TrimSpace(t)
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
