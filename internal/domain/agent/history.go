package agent

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	noPreviousConversation = "No previous conversation."
	noConversationHistory  = "No conversation history."
	troubleshootingWindow  = 5
)

// formatHistory renders messages as "Role: content" lines.
func formatHistory(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		b.WriteString(capitalize(role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func lastMessages(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// TokenCounter counts prompt tokens.
type TokenCounter interface {
	Count(text string) int
}

// EstimateCounter approximates tokens from rune and word counts.
type EstimateCounter struct{}

// Count implements TokenCounter.
func (EstimateCounter) Count(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	tokens := utf8.RuneCountInString(trimmed) / 4
	if tokens < words {
		tokens = words
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// TiktokenCounter counts with the model's BPE encoding, loaded on first use.
// When the encoding cannot be loaded it falls back to EstimateCounter.
type TiktokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

// NewTiktokenCounter builds a counter for model.
func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

// Count implements TokenCounter.
func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return EstimateCounter{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// trimToBudget drops the oldest messages until the formatted history fits.
func trimToBudget(messages []Message, counter TokenCounter, budget int) []Message {
	if counter == nil || budget <= 0 {
		return messages
	}
	counts := make([]int, len(messages))
	total := 0
	for i, msg := range messages {
		counts[i] = counter.Count(capitalize(msg.Role) + ": " + msg.Content)
		total += counts[i]
	}
	start := 0
	for total > budget && start < len(messages)-1 {
		total -= counts[start]
		start++
	}
	return messages[start:]
}
