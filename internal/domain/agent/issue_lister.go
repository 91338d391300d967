package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
)

var (
	issuesSchema = &outputSchema{
		name: "common_issues",
		schema: objectSchema(map[string]any{
			"issues": map[string]any{"type": "array", "items": stringProp()},
		}),
	}
	listNumbering = regexp.MustCompile(`^\d+[\.\)]\s*`)
)

const minIssueLength = 5

// IssueLister asks the model for common problems with an appliance type.
type IssueLister struct {
	caller
}

// NewIssueLister builds the issue listing agent.
func NewIssueLister(client ChatClient, settings Settings, validator SchemaValidator, logger *slog.Logger) *IssueLister {
	return &IssueLister{caller: newCaller("issue_lister", client, settings, validator, logger)}
}

// List returns up to ten issues, or nil when the model is unavailable.
func (l *IssueLister) List(ctx context.Context, a appliance.Appliance) []string {
	prompt := fmt.Sprintf(issueListingPrompt, a.ApplianceType, orUnknown(a.Brand), orUnknown(a.Model))
	content, err := l.complete(ctx, []chatgpt.Message{{Role: "user", Content: prompt}}, issuesSchema)
	if err != nil {
		l.logger.Warn("issue listing failed", "error", err)
		return nil
	}

	var out struct {
		Issues []string `json:"issues"`
	}
	if l.decode(content, issuesSchema, &out) {
		content = strings.Join(out.Issues, "\n")
	}
	return ParseIssueList(content)
}

// ParseIssueList turns a numbered list into issue titles. Numbering is
// stripped, lines of five characters or fewer are dropped and the result is
// capped at MaxListedIssues.
func ParseIssueList(content string) []string {
	var issues []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(listNumbering.ReplaceAllString(line, ""))
		if len([]rune(line)) > minIssueLength {
			issues = append(issues, line)
		}
	}
	if len(issues) > appliance.MaxListedIssues {
		issues = issues[:appliance.MaxListedIssues]
	}
	return issues
}
