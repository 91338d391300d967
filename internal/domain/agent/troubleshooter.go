package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
)

// TroubleshootingApology is returned when both the guidance request and its
// simpler retry fail.
const TroubleshootingApology = "I apologize, but I encountered an error while providing troubleshooting guidance. Please try again or consider booking a technician."

// Troubleshooter produces step-by-step repair guidance.
type Troubleshooter struct {
	caller
}

// NewTroubleshooter builds the troubleshooting agent.
func NewTroubleshooter(client ChatClient, settings Settings, logger *slog.Logger) *Troubleshooter {
	return &Troubleshooter{caller: newCaller("troubleshooter", client, settings, nil, logger)}
}

// Guide returns guidance for issue given the recent conversation. For
// catalog issues the model is told not to quote parts and any part text it
// still produces is removed.
func (t *Troubleshooter) Guide(ctx context.Context, a appliance.Appliance, issue string, history []Message, catalogIssue bool) string {
	historyText := formatHistory(lastMessages(history, troubleshootingWindow))
	if historyText == "" {
		historyText = noPreviousConversation
	}
	template := troubleshootingPrompt
	if catalogIssue {
		template = catalogIssuePrompt
	}
	prompt := fmt.Sprintf(template, orUnknown(a.ApplianceType), orUnknown(a.Brand), orUnknown(a.Model), issue, historyText)

	guidance, err := t.complete(ctx, []chatgpt.Message{
		{Role: "system", Content: troubleshootingSystemPrompt},
		{Role: "user", Content: prompt},
	}, nil)
	if err == nil {
		if catalogIssue {
			guidance = appliance.StripPartDetails(guidance)
		}
		return guidance
	}
	t.logger.Warn("troubleshooting guidance failed, retrying with simple prompt", "error", err)

	retry := fmt.Sprintf(troubleshootingRetryPrompt, orUnknown(a.ApplianceType), orUnknown(a.Brand), orUnknown(a.Model), issue)
	guidance, err = t.complete(ctx, []chatgpt.Message{{Role: "user", Content: retry}}, nil)
	if err != nil {
		t.logger.Error("troubleshooting retry failed", "error", err)
		return TroubleshootingApology
	}
	return guidance
}
