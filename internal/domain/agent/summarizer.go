package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
)

// SummaryUnavailable is the summary used when the model cannot be reached.
const SummaryUnavailable = "Issue description not available."

// Summarizer condenses the conversation into a note for the technician.
type Summarizer struct {
	caller
	counter TokenCounter
	budget  int
}

// NewSummarizer builds the summarization agent. History beyond budget tokens
// is dropped oldest first.
func NewSummarizer(client ChatClient, settings Settings, counter TokenCounter, budget int, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		caller:  newCaller("summarizer", client, settings, nil, logger),
		counter: counter,
		budget:  budget,
	}
}

// Summarize returns a short professional summary of the issue.
func (s *Summarizer) Summarize(ctx context.Context, a appliance.Appliance, history []Message) string {
	kept := trimToBudget(history, s.counter, s.budget)
	if dropped := len(history) - len(kept); dropped > 0 {
		s.logger.Debug("summary history trimmed", "dropped", dropped, "budget", s.budget)
	}
	historyText := formatHistory(kept)
	if historyText == "" {
		historyText = noConversationHistory
	}
	prompt := fmt.Sprintf(summarizationPrompt, a.ApplianceType, a.Brand, a.Model, historyText)
	summary, err := s.complete(ctx, []chatgpt.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		s.logger.Warn("issue summarization failed", "error", err)
		return SummaryUnavailable
	}
	return summary
}
