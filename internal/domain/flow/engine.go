package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// ActionType names a user interaction.
type ActionType string

const (
	ActionSelectCategory        ActionType = "select_category"
	ActionNameplateGuidance     ActionType = "nameplate_guidance"
	ActionSubmitAppliance       ActionType = "submit_appliance"
	ActionConfirmAppliance      ActionType = "confirm_appliance"
	ActionMessage               ActionType = "message"
	ActionSelectIssue           ActionType = "select_issue"
	ActionDescribeIssue         ActionType = "describe_issue"
	ActionChooseTroubleshoot    ActionType = "choose_troubleshoot"
	ActionChooseBooking         ActionType = "choose_booking"
	ActionSelectTechnician      ActionType = "select_technician"
	ActionSelectSlot            ActionType = "select_slot"
	ActionSubmitCustomer        ActionType = "submit_customer"
	ActionConfirmBooking        ActionType = "confirm_booking"
	ActionOrderPart             ActionType = "order_part"
	ActionConfirmAddress        ActionType = "confirm_address"
	ActionConfirmPayment        ActionType = "confirm_payment"
	ActionBackToAddress         ActionType = "back_to_address"
	ActionSelectOrderTechnician ActionType = "select_order_technician"
	ActionSelectOrderSlot       ActionType = "select_order_slot"
	ActionConfirmCombined       ActionType = "confirm_combined"
	ActionCancelOrder           ActionType = "cancel_order"
	ActionResumeTroubleshooting ActionType = "resume_troubleshooting"
	ActionBackToCategory        ActionType = "back_to_category"
	ActionStartOver             ActionType = "start_over"
)

// ApplianceInput is a manually entered or corrected appliance.
type ApplianceInput struct {
	Brand         string `json:"brand"`
	Model         string `json:"model"`
	Serial        string `json:"serial"`
	ApplianceType string `json:"appliance_type"`
}

// Action is one user interaction. Only the fields relevant to Type are read.
type Action struct {
	Type           ActionType              `json:"type"`
	Category       string                  `json:"category,omitempty"`
	Subcategory    string                  `json:"subcategory,omitempty"`
	Brand          string                  `json:"brand,omitempty"`
	Appliance      *ApplianceInput         `json:"appliance,omitempty"`
	Text           string                  `json:"text,omitempty"`
	Issue          string                  `json:"issue,omitempty"`
	Index          *int                    `json:"index,omitempty"`
	TechnicianID   string                  `json:"technician_id,omitempty"`
	Customer       *appliance.Customer     `json:"customer,omitempty"`
	Payment        appliance.PaymentOption `json:"payment,omitempty"`
	CatalogParts   []string                `json:"catalog_parts,omitempty"`
	WithTechnician bool                    `json:"with_technician,omitempty"`
	Address        *booking.Address        `json:"address,omitempty"`
	Confirmed      bool                    `json:"confirmed,omitempty"`
}

// Config tunes the engine.
type Config struct {
	MaxImageBytes int64
}

// Engine applies user actions to sessions.
type Engine struct {
	cfg          Config
	orchestrator *Orchestrator
	bookings     *booking.Service
	issues       appliance.CommonIssuesRepository
	kb           appliance.KnowledgeBaseRepository
	images       ImageStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine wires the flow. issues, kb and images may be nil.
func NewEngine(cfg Config, orchestrator *Orchestrator, bookings *booking.Service, issues appliance.CommonIssuesRepository, kb appliance.KnowledgeBaseRepository, images ImageStore, logger *slog.Logger) *Engine {
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 10 << 20
	}
	return &Engine{
		cfg:          cfg,
		orchestrator: orchestrator,
		bookings:     bookings,
		issues:       issues,
		kb:           kb,
		images:       images,
		logger:       logger.With("component", "flow.engine"),
		now:          bookings.Now,
	}
}

// AgentsAvailable reports whether any LLM agent is configured.
func (e *Engine) AgentsAvailable() bool {
	return e.orchestrator.Available()
}

// NewSession starts a conversation on the engine clock.
func (e *Engine) NewSession() *Session {
	s := NewSession(e.now())
	e.logger.Info("session started", "session_id", s.ID)
	return s
}

// Apply mutates s according to a. On error the caller must discard s:
// validation failures return invalid_input and illegal actions return
// unhandled_event, both before anything is changed.
func (e *Engine) Apply(ctx context.Context, s *Session, a Action) error {
	s.Notice = ""
	var err error
	switch a.Type {
	case ActionSelectCategory:
		err = e.selectCategory(s, a)
	case ActionNameplateGuidance:
		err = e.nameplateGuidance(ctx, s, a)
	case ActionSubmitAppliance:
		err = e.submitAppliance(ctx, s, a)
	case ActionConfirmAppliance:
		err = e.confirmAppliance(ctx, s)
	case ActionBackToCategory:
		err = e.backToCategory(s)
	case ActionMessage:
		err = e.message(ctx, s, a)
	case ActionSelectIssue:
		err = e.selectIssue(ctx, s, a)
	case ActionDescribeIssue:
		err = e.describeIssue(ctx, s, a)
	case ActionChooseTroubleshoot:
		err = e.chooseTroubleshoot(ctx, s)
	case ActionChooseBooking:
		err = e.startBooking(ctx, s)
	case ActionSelectTechnician:
		err = e.selectTechnician(ctx, s, a)
	case ActionSelectSlot:
		err = e.selectSlot(s, a)
	case ActionSubmitCustomer:
		err = e.submitCustomer(ctx, s, a)
	case ActionConfirmBooking:
		err = e.confirmBooking(ctx, s, a)
	case ActionResumeTroubleshooting:
		err = e.resumeTroubleshooting(ctx, s)
	case ActionOrderPart:
		err = e.orderPart(s, a)
	case ActionConfirmAddress:
		err = e.confirmAddress(ctx, s, a)
	case ActionConfirmPayment:
		err = e.confirmPayment(s, a)
	case ActionBackToAddress:
		err = e.backToAddress(s)
	case ActionSelectOrderTechnician:
		err = e.selectOrderTechnician(ctx, s, a)
	case ActionSelectOrderSlot:
		err = e.selectOrderSlot(s, a)
	case ActionConfirmCombined:
		err = e.confirmCombined(ctx, s, a)
	case ActionCancelOrder:
		err = e.cancelOrder(ctx, s)
	case ActionStartOver:
		e.Reset(s)
	default:
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown event type %q", a.Type), nil)
	}
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnhandledEvent) {
			e.logger.Warn("unhandled flow event", "session_id", s.ID, "flow", s.Flow, "event", a.Type)
		}
		return err
	}
	s.UpdatedAt = e.now()
	return nil
}

// Reset starts the session over, keeping its ID.
func (e *Engine) Reset(s *Session) {
	s.Reset(e.now())
	e.logger.Info("session reset", "session_id", s.ID)
}

func (e *Engine) say(s *Session, text string) {
	s.AddMessage(RoleAssistant, text, e.now())
}

func (e *Engine) hear(s *Session, text string) {
	s.AddMessage(RoleUser, text, e.now())
}

func move(s *Session, ev Event) error {
	next, err := Transition(s.Flow, ev)
	if err != nil {
		return err
	}
	s.Flow = next
	return nil
}

func unhandled(s *Session, action ActionType) error {
	return apperrors.Wrap(apperrors.CodeUnhandledEvent, fmt.Sprintf("%s is not allowed during %s", action, s.Flow), ErrUnhandledEvent)
}

func expectFlow(s *Session, action ActionType, states ...State) error {
	for _, st := range states {
		if s.Flow == st {
			return nil
		}
	}
	return unhandled(s, action)
}

func invalid(message string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, message, nil)
}

func pick[T any](items []T, idx *int) (T, bool) {
	var zero T
	if idx == nil || *idx < 0 || *idx >= len(items) {
		return zero, false
	}
	return items[*idx], true
}
