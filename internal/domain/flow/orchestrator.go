package flow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yanqian/appliance-assistant/internal/domain/agent"
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// GuidanceUnavailable is shown when no troubleshooting agent is configured.
const GuidanceUnavailable = "I'm unable to provide troubleshooting guidance at the moment."

// ErrAgentUnavailable is returned when a required agent is not configured.
var ErrAgentUnavailable = errors.New("agent not configured")

type TypeDetector interface {
	Detect(ctx context.Context, a appliance.Appliance) string
}

type IssueLister interface {
	List(ctx context.Context, a appliance.Appliance) []string
}

type Troubleshooter interface {
	Guide(ctx context.Context, a appliance.Appliance, issue string, history []agent.Message, catalogIssue bool) string
}

type Summarizer interface {
	Summarize(ctx context.Context, a appliance.Appliance, history []agent.Message) string
}

type NameplateReader interface {
	Read(ctx context.Context, hash, mimeType string, image []byte) (agent.Reading, error)
}

type Extractor interface {
	Extract(ctx context.Context, text string) appliance.Info
}

type NameplateGuide interface {
	Locate(ctx context.Context, category, subcategory, brand string) string
}

// Agents groups the LLM agents. Any of them may be nil.
type Agents struct {
	TypeDetector    TypeDetector
	IssueLister     IssueLister
	Troubleshooter  Troubleshooter
	Summarizer      Summarizer
	NameplateReader NameplateReader
	Extractor       Extractor
	NameplateGuide  NameplateGuide
}

// Orchestrator routes flow requests to whichever agents are configured and
// substitutes fixed fallbacks for the rest.
type Orchestrator struct {
	agents  Agents
	catalog appliance.PartsCatalog
	logger  *slog.Logger
}

// NewOrchestrator wires the agents. catalog may be nil.
func NewOrchestrator(agents Agents, catalog appliance.PartsCatalog, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		agents:  agents,
		catalog: catalog,
		logger:  logger.With("component", "flow.orchestrator"),
	}
}

// Available reports whether any agent is configured.
func (o *Orchestrator) Available() bool {
	a := o.agents
	return a.TypeDetector != nil || a.IssueLister != nil || a.Troubleshooter != nil ||
		a.Summarizer != nil || a.NameplateReader != nil || a.Extractor != nil || a.NameplateGuide != nil
}

func (o *Orchestrator) DetectApplianceType(ctx context.Context, a appliance.Appliance) string {
	if o.agents.TypeDetector == nil {
		return appliance.Unknown
	}
	return o.agents.TypeDetector.Detect(ctx, a)
}

func (o *Orchestrator) ListCommonIssues(ctx context.Context, a appliance.Appliance) []string {
	if o.agents.IssueLister == nil || !a.HasType() {
		return nil
	}
	return o.agents.IssueLister.List(ctx, a)
}

func (o *Orchestrator) TroubleshootingGuidance(ctx context.Context, a appliance.Appliance, issue string, history []agent.Message) string {
	if o.agents.Troubleshooter == nil {
		return GuidanceUnavailable
	}
	return o.agents.Troubleshooter.Guide(ctx, a, issue, history, o.IsCatalogIssue(issue))
}

func (o *Orchestrator) SummarizeIssue(ctx context.Context, a appliance.Appliance, history []agent.Message) string {
	if o.agents.Summarizer == nil {
		return agent.SummaryUnavailable
	}
	return o.agents.Summarizer.Summarize(ctx, a, history)
}

// ReadNameplate runs vision extraction. Unlike the other calls it reports
// failure so the caller can show it inline.
func (o *Orchestrator) ReadNameplate(ctx context.Context, hash, mimeType string, image []byte) (agent.Reading, error) {
	if o.agents.NameplateReader == nil {
		return agent.Reading{}, apperrors.Wrap(apperrors.CodeLLM, "Error reading image", ErrAgentUnavailable)
	}
	return o.agents.NameplateReader.Read(ctx, hash, mimeType, image)
}

func (o *Orchestrator) ExtractAppliance(ctx context.Context, text string) appliance.Info {
	if o.agents.Extractor == nil {
		return appliance.Info{}
	}
	return o.agents.Extractor.Extract(ctx, text)
}

func (o *Orchestrator) NameplateGuidance(ctx context.Context, category, subcategory, brand string) string {
	if o.agents.NameplateGuide == nil {
		return agent.GuidanceUnavailable
	}
	return o.agents.NameplateGuide.Locate(ctx, category, subcategory, brand)
}

// IsCatalogIssue reports whether issue is backed by the parts image catalog.
func (o *Orchestrator) IsCatalogIssue(issue string) bool {
	return o.catalog != nil && o.catalog.IsSpecialIssue(issue)
}

// CatalogParts lists the image backed parts for a special issue.
func (o *Orchestrator) CatalogParts(issue string) []appliance.CatalogPart {
	if !o.IsCatalogIssue(issue) {
		return nil
	}
	parts, err := o.catalog.PartsForIssue(issue)
	if err != nil {
		o.logger.Warn("catalog parts unavailable", "issue", issue, "error", err)
		return nil
	}
	return parts
}
