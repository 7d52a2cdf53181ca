package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/config"
)

// AnthropicClassifier implements IntentClassifier using Claude.
type AnthropicClassifier struct {
	client  anthropic.Client
	model   anthropic.Model
	prompts *config.Prompts
	now     func() time.Time
}

// NewAnthropicClassifier creates a classifier using the Haiku model, which
// is plenty for short single-turn intent extraction.
func NewAnthropicClassifier(apiKey string, prompts *config.Prompts) *AnthropicClassifier {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClassifier{
		client:  client,
		model:   anthropic.Model("claude-haiku-4-5-20251001"),
		prompts: prompts,
		now:     time.Now,
	}
}

func newUserMessage(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleUser,
		Content: blocks,
	}
}

// ClassifyIntent asks Claude for the intent and slots of text. The session
// id is accepted for interface parity; Claude calls here are single-turn.
// Retryable provider failures are marked transient so the caller's retry
// policy can decide.
func (p *AnthropicClassifier) ClassifyIntent(ctx context.Context, text string, sessionID string) (*Classification, error) {
	sysPrompt, err := config.RenderPrompt(p.prompts.Intent.Classify.System, map[string]interface{}{
		"Today": p.now().Format("Monday, 2 January 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}

	userPrompt, err := config.RenderPrompt(p.prompts.Intent.Classify.User, map[string]interface{}{
		"Text": text,
	})
	if err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: sysPrompt},
		},
		Messages: []anthropic.MessageParam{
			newUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		wrapped := fmt.Errorf("claude API error: %w", err)
		if shouldRetry, _ := classifyAnthropicError(err); shouldRetry {
			return nil, apperr.Transient(wrapped)
		}
		return nil, wrapped
	}

	content, err := extractTextContent(resp)
	if err != nil {
		return nil, err
	}

	return parseClassification(content)
}

// extractTextContent returns the concatenated text blocks from a Claude response.
func extractTextContent(msg *anthropic.Message) (string, error) {
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("no text content in Claude response")
	}
	return text, nil
}

// rawClassification tolerates non-string slot values such as a bare year.
type rawClassification struct {
	Intent     string                 `json:"intent"`
	Slots      map[string]interface{} `json:"slots"`
	Confidence float64                `json:"confidence"`
}

// parseClassification decodes the classifier's JSON answer, ignoring any
// markdown fence or prose around the object.
func parseClassification(content string) (*Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in classifier output: %q", content)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classifier output: %w", err)
	}

	slots := make(map[string]string, len(raw.Slots))
	for name, value := range raw.Slots {
		switch v := value.(type) {
		case nil:
		case string:
			if s := strings.TrimSpace(v); s != "" {
				slots[name] = s
			}
		case float64:
			slots[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			slots[name] = strconv.FormatBool(v)
		default:
			slots[name] = fmt.Sprint(v)
		}
	}

	return &Classification{
		IntentName: strings.TrimSpace(raw.Intent),
		Slots:      slots,
		Confidence: raw.Confidence,
	}, nil
}
