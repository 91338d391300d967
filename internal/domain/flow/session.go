package flow

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yanqian/appliance-assistant/internal/domain/agent"
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. Uploaded images are referenced by hash.
type Message struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	ImageRef string    `json:"image_ref,omitempty"`
	At       time.Time `json:"at"`
}

// BookingStep is the sub-step of the technician booking wizard.
type BookingStep string

const (
	BookingTechnicianSelection BookingStep = "technician_selection"
	BookingTimeSlot            BookingStep = "time_slot"
	BookingCustomerDetails     BookingStep = "customer_details"
	BookingPayment             BookingStep = "payment"
	BookingConfirmed           BookingStep = "confirmed"
)

// OrderStep is the sub-step of the part ordering wizard.
type OrderStep string

const (
	OrderAddressConfirmation OrderStep = "address_confirmation"
	OrderPaymentConfirmation OrderStep = "payment_confirmation"
	OrderTechnicianSelection OrderStep = "technician_selection"
	OrderTechnicianTimeSlot  OrderStep = "technician_time_slot"
	OrderCombinedConfirm     OrderStep = "combined_confirmation"
)

// BookingDraft collects a technician visit across requests.
type BookingDraft struct {
	Step         BookingStep             `json:"step,omitempty"`
	Technicians  []appliance.Technician  `json:"technicians,omitempty"`
	TechnicianID string                  `json:"technician_id,omitempty"`
	Slots        []booking.Slot          `json:"slots,omitempty"`
	Slot         *booking.Slot           `json:"slot,omitempty"`
	Customer     appliance.Customer      `json:"customer"`
	Cost         appliance.CostBreakdown `json:"cost"`
	Payment      appliance.PaymentOption `json:"payment,omitempty"`
	ConfirmedID  string                  `json:"confirmed_id,omitempty"`
	DispatchID   string                  `json:"dispatch_id,omitempty"`
}

// OrderDraft collects a part order, and for combined orders the install
// visit, across requests.
type OrderDraft struct {
	Step         OrderStep                `json:"step,omitempty"`
	Part         *appliance.Part          `json:"part,omitempty"`
	Components   []appliance.Part         `json:"components,omitempty"`
	Combined     bool                     `json:"combined"`
	Address      booking.Address          `json:"address"`
	Delivery     booking.Delivery         `json:"delivery"`
	Quote        booking.OrderQuote       `json:"quote"`
	Charge       booking.TechnicianCharge `json:"charge"`
	TrackingID   string                   `json:"tracking_id,omitempty"`
	Technicians  []appliance.Technician   `json:"technicians,omitempty"`
	TechnicianID string                   `json:"technician_id,omitempty"`
	Slots        []booking.Slot           `json:"slots,omitempty"`
	Slot         *booking.Slot            `json:"slot,omitempty"`
}

// Active reports whether an order is in progress.
func (o OrderDraft) Active() bool {
	return o.Part != nil
}

// Session is the complete per-user conversation state.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Flow      State                `json:"flow"`
	Messages  []Message            `json:"messages"`
	Appliance *appliance.Appliance `json:"appliance,omitempty"`

	Category          string `json:"category,omitempty"`
	Subcategory       string `json:"subcategory,omitempty"`
	Brand             string `json:"brand,omitempty"`
	NameplateGuidance string `json:"nameplate_guidance,omitempty"`

	ProblemDescription string                  `json:"problem_description,omitempty"`
	CommonIssues       []string                `json:"common_issues,omitempty"`
	IssueSummary       string                  `json:"issue_summary,omitempty"`
	SuggestedParts     []appliance.Part        `json:"suggested_parts,omitempty"`
	IssueParts         []appliance.CatalogPart `json:"issue_parts,omitempty"`
	SafetyWarning      bool                    `json:"safety_warning,omitempty"`

	Booking      BookingDraft          `json:"booking"`
	Order        OrderDraft            `json:"order"`
	OrderHistory []booking.OrderRecord `json:"order_history,omitempty"`
	BookingIDs   []string              `json:"booking_ids,omitempty"`

	ShowTroubleshootOrBook bool `json:"show_troubleshoot_or_book,omitempty"`
	TroubleshootingStarted bool `json:"troubleshooting_started,omitempty"`
	IssuesShown            bool `json:"issues_shown,omitempty"`
	ShowPhotoConfirm       bool `json:"show_photo_confirm,omitempty"`

	ProcessedImages map[string]bool `json:"processed_images,omitempty"`

	// Notice is an inline warning produced by the last event.
	Notice string `json:"notice,omitempty"`
}

// NewSession starts a conversation at category selection.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:              ulid.Make().String(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Flow:            StateCategorySelection,
		ProcessedImages: map[string]bool{},
	}
}

// Reset replaces the whole record with a fresh one that keeps the ID and
// the bookings placed so far.
func (s *Session) Reset(now time.Time) {
	id, created, bookings := s.ID, s.CreatedAt, s.BookingIDs
	*s = *NewSession(now)
	s.ID = id
	s.CreatedAt = created
	s.BookingIDs = bookings
}

// OwnsBooking reports whether the booking was placed from this session.
func (s *Session) OwnsBooking(id string) bool {
	id = strings.TrimSpace(id)
	for _, owned := range s.BookingIDs {
		if strings.EqualFold(owned, id) {
			return id != ""
		}
	}
	return false
}

func (s *Session) addBooking(id string) {
	if id != "" {
		s.BookingIDs = append(s.BookingIDs, id)
	}
}

// AddMessage appends a chat turn.
func (s *Session) AddMessage(role, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, At: at})
}

// AddImageMessage appends a chat turn that references an uploaded image.
func (s *Session) AddImageMessage(role, content, imageRef string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, ImageRef: imageRef, At: at})
}

// History converts the chat into agent conversation turns.
func (s *Session) History() []agent.Message {
	out := make([]agent.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, agent.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// LastAssistantMessage returns the most recent assistant turn.
func (s *Session) LastAssistantMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// CurrentAppliance returns the identified appliance or a blank one.
func (s *Session) CurrentAppliance() appliance.Appliance {
	if s.Appliance == nil {
		return appliance.Appliance{}
	}
	return *s.Appliance
}

// ApplianceType is the detected type, if any.
func (s *Session) ApplianceType() string {
	if s.Appliance == nil {
		return ""
	}
	return strings.TrimSpace(s.Appliance.ApplianceType)
}

func (s *Session) markProcessed(hash string) {
	if s.ProcessedImages == nil {
		s.ProcessedImages = map[string]bool{}
	}
	s.ProcessedImages[hash] = true
}
