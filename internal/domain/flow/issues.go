package flow

import (
	"context"
	"strconv"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

// showIssues posts the common issues for the identified appliance.
func (e *Engine) showIssues(ctx context.Context, s *Session) {
	s.CommonIssues = nil
	s.IssuesShown = true
	app := s.CurrentAppliance()
	if !app.HasType() {
		e.say(s, identifyFirstReply)
		return
	}

	var fromRepo []string
	if e.issues != nil {
		issues, err := e.issues.ForType(ctx, app.ApplianceType)
		if err != nil {
			e.logger.Warn("common issues unavailable", "appliance_type", app.ApplianceType, "error", err)
		}
		fromRepo = issues
	}
	s.CommonIssues = appliance.MergeIssues(app.ApplianceType, fromRepo, e.orchestrator.ListCommonIssues(ctx, app))
	e.say(s, issueListingMessage(app.ApplianceType, len(s.CommonIssues) > 0))
}

func (e *Engine) message(ctx context.Context, s *Session, a Action) error {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return invalid(msgEmptyMessage)
	}
	switch s.Flow {
	case StateIdentification:
		return e.identificationInput(ctx, s, text)
	case StateIssueListing:
		return e.issueListingInput(ctx, s, text)
	case StateTroubleshooting:
		return e.troubleshootingInput(ctx, s, text)
	default:
		e.hear(s, text)
		e.say(s, fallbackReply)
		return nil
	}
}

// issueListingInput routes free text during issue listing: once an issue is
// known the text picks DIY or booking, otherwise it selects or describes the
// issue.
func (e *Engine) issueListingInput(ctx context.Context, s *Session, text string) error {
	if s.ProblemDescription != "" {
		if containsAny(text, diyKeywords) {
			e.hear(s, text)
			return e.startTroubleshooting(ctx, s)
		}
		if containsAny(text, bookChoiceKeywords) {
			return e.startBookingFrom(ctx, s, text)
		}
	}
	if containsAny(text, bookKeywords) {
		return e.startBookingFrom(ctx, s, text)
	}

	e.hear(s, text)
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(s.CommonIssues) {
		e.setProblem(ctx, s, s.CommonIssues[n-1])
		return nil
	}
	e.setProblem(ctx, s, text)
	return nil
}

func (e *Engine) troubleshootingInput(ctx context.Context, s *Session, text string) error {
	if containsAny(text, stopTroubleshooting) {
		return e.startBookingFrom(ctx, s, text)
	}
	e.hear(s, text)
	guidance := e.orchestrator.TroubleshootingGuidance(ctx, s.CurrentAppliance(), s.ProblemDescription, s.History())
	e.say(s, guidance)
	e.captureParts(s, guidance)
	return nil
}

func (e *Engine) selectIssue(ctx context.Context, s *Session, a Action) error {
	if err := expectFlow(s, a.Type, StateIssueListing); err != nil {
		return err
	}
	issue := strings.TrimSpace(a.Issue)
	if issue == "" {
		if picked, ok := pick(s.CommonIssues, a.Index); ok {
			issue = picked
		}
	}
	if issue == "" {
		return invalid(msgSelectIssue)
	}
	e.hear(s, issue)
	e.setProblem(ctx, s, issue)
	return nil
}

func (e *Engine) describeIssue(ctx context.Context, s *Session, a Action) error {
	if err := expectFlow(s, a.Type, StateIssueListing); err != nil {
		return err
	}
	issue := strings.TrimSpace(a.Text)
	if issue == "" {
		return invalid(msgDescribeIssue)
	}
	e.hear(s, issue)
	e.setProblem(ctx, s, issue)
	return nil
}

// setProblem records the customer's issue and asks how to proceed.
func (e *Engine) setProblem(ctx context.Context, s *Session, issue string) {
	s.ProblemDescription = issue
	s.IssueParts = e.orchestrator.CatalogParts(issue)
	s.SuggestedParts = nil
	s.ShowTroubleshootOrBook = true
	s.SafetyWarning = e.isDangerous(ctx, issue)
	if s.SafetyWarning {
		s.Notice = safetyNotice
	}
	e.say(s, troubleshootOrBookMessage(issue))
}

func (e *Engine) isDangerous(ctx context.Context, issue string) bool {
	if e.kb == nil {
		return false
	}
	keywords, err := e.kb.DangerousKeywords(ctx)
	if err != nil {
		e.logger.Warn("dangerous keywords unavailable", "error", err)
		return false
	}
	lower := strings.ToLower(issue)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (e *Engine) chooseTroubleshoot(ctx context.Context, s *Session) error {
	if err := expectFlow(s, ActionChooseTroubleshoot, StateIssueListing); err != nil {
		return err
	}
	if s.ProblemDescription == "" {
		return invalid(msgSelectIssue)
	}
	return e.startTroubleshooting(ctx, s)
}

func (e *Engine) startTroubleshooting(ctx context.Context, s *Session) error {
	if err := move(s, EventTroubleshootChosen); err != nil {
		return err
	}
	s.ShowTroubleshootOrBook = false
	e.firstGuidance(ctx, s)
	return nil
}

// firstGuidance posts the opening troubleshooting steps, without history.
func (e *Engine) firstGuidance(ctx context.Context, s *Session) {
	s.TroubleshootingStarted = true
	guidance := e.orchestrator.TroubleshootingGuidance(ctx, s.CurrentAppliance(), s.ProblemDescription, nil)
	e.say(s, guidance)
	e.captureParts(s, guidance)
}

// resumeGuidance starts troubleshooting when the customer returns to it
// before any guidance was given.
func (e *Engine) resumeGuidance(ctx context.Context, s *Session) {
	if !s.TroubleshootingStarted && s.ProblemDescription != "" {
		e.firstGuidance(ctx, s)
	}
}

// captureParts keeps the parts named in guidance orderable. Catalog issues
// order from the image catalog instead.
func (e *Engine) captureParts(s *Session, guidance string) {
	if e.orchestrator.IsCatalogIssue(s.ProblemDescription) {
		return
	}
	if parts := appliance.ExtractParts(guidance); len(parts) > 0 {
		s.SuggestedParts = parts
	}
}
