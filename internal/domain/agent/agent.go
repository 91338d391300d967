package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// ChatClient is the subset of the ChatGPT client the agents depend on.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// SchemaValidator checks model output against a JSON Schema.
type SchemaValidator interface {
	Validate(schema map[string]any, raw []byte) error
}

// Settings tunes a single agent's completion requests.
type Settings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Message is one turn of the customer conversation.
type Message struct {
	Role    string
	Content string
}

// outputSchema names the JSON shape an agent asks the model for.
type outputSchema struct {
	name   string
	schema map[string]any
}

func (o *outputSchema) responseFormat() *chatgpt.ResponseFormat {
	return &chatgpt.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &chatgpt.JSONSchema{
			Name:   o.name,
			Schema: o.schema,
			Strict: true,
		},
	}
}

type caller struct {
	name      string
	client    ChatClient
	settings  Settings
	validator SchemaValidator
	logger    *slog.Logger
}

func newCaller(name string, client ChatClient, settings Settings, validator SchemaValidator, logger *slog.Logger) caller {
	if logger == nil {
		logger = slog.Default()
	}
	return caller{
		name:      name,
		client:    client,
		settings:  settings,
		validator: validator,
		logger:    logger.With("component", "agent."+name),
	}
}

// complete sends one request and returns the trimmed text of the first choice.
func (c caller) complete(ctx context.Context, messages []chatgpt.Message, out *outputSchema) (string, error) {
	req := chatgpt.ChatCompletionRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		Temperature: c.settings.Temperature,
		MaxTokens:   c.settings.MaxTokens,
	}
	if out != nil && c.validator != nil {
		req.ResponseFormat = out.responseFormat()
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}
	content, ok := resp.FirstContent()
	if !ok {
		return "", apperrors.Wrap(apperrors.CodeLLM, "chatgpt returned no choices", nil)
	}
	if !resp.Usage.IsZero() {
		c.logger.Debug("chatgpt usage", resp.Usage.LogAttrs()...)
	}
	return content, nil
}

// decode fills target from schema-valid JSON content. It returns false when
// structured output is disabled or the content does not validate, in which
// case the caller falls back to its text parser.
func (c caller) decode(content string, out *outputSchema, target any) bool {
	if c.validator == nil {
		return false
	}
	raw := []byte(stripCodeFence(content))
	if err := c.validator.Validate(out.schema, raw); err != nil {
		c.logger.Info("unstructured parse used", "agent", c.name, "reason", err.Error())
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		c.logger.Info("unstructured parse used", "agent", c.name, "reason", err.Error())
		return false
	}
	return true
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func nullable(kind string) map[string]any {
	return map[string]any{"type": []any{kind, "null"}}
}

func objectSchema(props map[string]any) map[string]any {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	required := make([]any, 0, len(keys))
	for _, key := range keys {
		required = append(required, key)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}
