package flow

import (
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
)

// MissingCredentialsNotice blocks the page when no LLM credential is set.
const MissingCredentialsNotice = "OpenAI API Key not found! Please set the OPENAI_API_KEY environment variable"

// View is everything the frontend needs to draw the current page.
type View struct {
	SessionID string               `json:"session_id"`
	Flow      State                `json:"flow"`
	Step      string               `json:"step,omitempty"`
	Messages  []Message            `json:"messages"`
	Appliance *appliance.Appliance `json:"appliance,omitempty"`
	Notices   []string             `json:"notices,omitempty"`
	Actions   []ActionType         `json:"actions"`

	Categories         []string            `json:"categories,omitempty"`
	Brands             []string            `json:"brands,omitempty"`
	BrandSubcategories map[string][]string `json:"brand_subcategories,omitempty"`
	NameplateGuidance  string              `json:"nameplate_guidance,omitempty"`
	PhotoConfirm       bool                `json:"photo_confirm,omitempty"`

	Problem         string                  `json:"problem,omitempty"`
	Issues          []string                `json:"issues,omitempty"`
	SafetyWarning   bool                    `json:"safety_warning,omitempty"`
	SuggestedParts  []appliance.Part        `json:"suggested_parts,omitempty"`
	CatalogParts    []appliance.CatalogPart `json:"catalog_parts,omitempty"`
	TroubleshootNow bool                    `json:"troubleshoot_or_book,omitempty"`

	Booking *BookingView          `json:"booking,omitempty"`
	Order   *OrderView            `json:"order,omitempty"`
	History []booking.OrderRecord `json:"order_history,omitempty"`
}

// BookingView is the technician booking wizard.
type BookingView struct {
	Step           BookingStep              `json:"step"`
	IssueSummary   string                   `json:"issue_summary,omitempty"`
	Technicians    []TechnicianCard         `json:"technicians,omitempty"`
	TechnicianID   string                   `json:"technician_id,omitempty"`
	Slots          []booking.Slot           `json:"slots,omitempty"`
	Slot           *booking.Slot            `json:"slot,omitempty"`
	Summary        string                   `json:"summary,omitempty"`
	Cost           *appliance.CostBreakdown `json:"cost,omitempty"`
	PaymentOptions []PaymentChoice          `json:"payment_options,omitempty"`
	Payment        appliance.PaymentOption  `json:"payment,omitempty"`
	ConfirmedID    string                   `json:"confirmed_id,omitempty"`
	DispatchID     string                   `json:"dispatch_id,omitempty"`
}

// TechnicianCard is a technician as listed for selection.
type TechnicianCard struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Rating          string   `json:"rating"`
	ExperienceYears int      `json:"experience_years"`
	BaseFee         float64  `json:"base_fee"`
	Specialization  []string `json:"specialization"`
	Location        string   `json:"location"`
	ResponseTime    string   `json:"response_time"`
}

// PaymentChoice is one payment radio option.
type PaymentChoice struct {
	Value appliance.PaymentOption `json:"value"`
	Label string                  `json:"label"`
}

// OrderView is the part ordering wizard.
type OrderView struct {
	Step          OrderStep                 `json:"step"`
	Part          appliance.Part            `json:"part"`
	Components    []appliance.Part          `json:"components,omitempty"`
	Combined      bool                      `json:"combined"`
	Address       booking.Address           `json:"address"`
	Delivery      booking.Delivery          `json:"delivery"`
	Quote         booking.OrderQuote        `json:"quote"`
	Card          *booking.Card             `json:"card,omitempty"`
	Charge        *booking.TechnicianCharge `json:"technician_charge,omitempty"`
	CombinedTotal float64                   `json:"combined_total,omitempty"`
	TrackingID    string                    `json:"tracking_id,omitempty"`
	Technicians   []TechnicianCard          `json:"technicians,omitempty"`
	TechnicianID  string                    `json:"technician_id,omitempty"`
	Slots         []booking.Slot            `json:"slots,omitempty"`
	Slot          *booking.Slot             `json:"slot,omitempty"`
}

// Render builds the page for s. It never mutates s.
func Render(s *Session, credentialsMissing bool) View {
	v := View{
		SessionID: s.ID,
		Flow:      s.Flow,
		Messages:  s.Messages,
		Appliance: s.Appliance,
		Actions:   allowedActions(s),
		History:   s.OrderHistory,
	}
	if credentialsMissing {
		v.Notices = append(v.Notices, MissingCredentialsNotice)
	}
	if s.Notice != "" {
		v.Notices = append(v.Notices, s.Notice)
	}

	switch s.Flow {
	case StateCategorySelection, StateIdentification:
		v.Categories = Categories
		v.Brands = Brands
		v.BrandSubcategories = BrandSubcategories
		v.NameplateGuidance = s.NameplateGuidance
		v.PhotoConfirm = s.ShowPhotoConfirm
	case StateIssueListing, StateTroubleshooting:
		v.Problem = s.ProblemDescription
		v.Issues = s.CommonIssues
		v.SafetyWarning = s.SafetyWarning
		v.TroubleshootNow = s.ShowTroubleshootOrBook
		v.SuggestedParts = s.SuggestedParts
		v.CatalogParts = s.IssueParts
	case StateBooking:
		v.Step = string(s.Booking.Step)
		v.Booking = renderBooking(s)
	case StatePartOrdering:
		v.Step = string(s.Order.Step)
		v.Order = renderOrder(s)
	}
	return v
}

func renderBooking(s *Session) *BookingView {
	b := s.Booking
	out := &BookingView{
		Step:         b.Step,
		IssueSummary: s.IssueSummary,
		TechnicianID: b.TechnicianID,
		Slot:         b.Slot,
		Payment:      b.Payment,
		ConfirmedID:  b.ConfirmedID,
		DispatchID:   b.DispatchID,
	}
	switch b.Step {
	case BookingTechnicianSelection:
		out.Technicians = technicianCards(b.Technicians)
	case BookingTimeSlot:
		out.Slots = b.Slots
	case BookingPayment:
		cost := b.Cost
		out.Cost = &cost
		out.PaymentOptions = []PaymentChoice{
			{Value: appliance.PayNow, Label: appliance.PayNow.Label()},
			{Value: appliance.PayOnVisit, Label: appliance.PayOnVisit.Label()},
		}
		if b.Slot != nil {
			out.Summary = booking.BookingSummary(s.CurrentAppliance(), s.ProblemDescription, *b.Slot, b.Cost, s.SuggestedParts)
		}
	}
	return out
}

func renderOrder(s *Session) *OrderView {
	o := s.Order
	if o.Part == nil {
		return nil
	}
	out := &OrderView{
		Step:         o.Step,
		Part:         *o.Part,
		Components:   o.Components,
		Combined:     o.Combined,
		Address:      o.Address,
		Delivery:     o.Delivery,
		Quote:        o.Quote,
		TrackingID:   o.TrackingID,
		TechnicianID: o.TechnicianID,
		Slot:         o.Slot,
	}
	if o.Step == OrderPaymentConfirmation || o.Step == OrderCombinedConfirm {
		card := booking.DefaultCard()
		out.Card = &card
	}
	if o.Combined {
		charge := o.Charge
		out.Charge = &charge
		out.CombinedTotal = booking.RoundCents(o.Quote.Total + o.Charge.Total)
	}
	switch o.Step {
	case OrderTechnicianSelection:
		out.Technicians = technicianCards(o.Technicians)
	case OrderTechnicianTimeSlot, OrderCombinedConfirm:
		out.Slots = o.Slots
	}
	return out
}

func technicianCards(techs []appliance.Technician) []TechnicianCard {
	cards := make([]TechnicianCard, 0, len(techs))
	for _, t := range techs {
		cards = append(cards, TechnicianCard{
			ID:              t.ID,
			Name:            t.Name,
			Rating:          booking.FormatRating(t.Rating),
			ExperienceYears: t.ExperienceYears,
			BaseFee:         t.BaseFee,
			Specialization:  t.Specialization,
			Location:        t.Location,
			ResponseTime:    t.ResponseTime,
		})
	}
	return cards
}

// allowedActions lists the events the current page accepts, besides
// start_over which is always accepted.
func allowedActions(s *Session) []ActionType {
	var out []ActionType
	switch s.Flow {
	case StateCategorySelection:
		out = []ActionType{ActionSelectCategory, ActionNameplateGuidance, ActionSubmitAppliance}
	case StateIdentification:
		out = []ActionType{ActionNameplateGuidance, ActionSubmitAppliance, ActionMessage, ActionBackToCategory}
		if s.ShowPhotoConfirm {
			out = append(out, ActionConfirmAppliance)
		}
	case StateIssueListing:
		out = []ActionType{ActionMessage, ActionSelectIssue, ActionDescribeIssue, ActionChooseBooking}
		if s.ProblemDescription != "" {
			out = append(out, ActionChooseTroubleshoot)
		}
		if len(s.SuggestedParts) > 0 || len(s.IssueParts) > 0 {
			out = append(out, ActionOrderPart)
		}
	case StateTroubleshooting:
		out = []ActionType{ActionMessage, ActionChooseBooking}
		if len(s.SuggestedParts) > 0 || len(s.IssueParts) > 0 {
			out = append(out, ActionOrderPart)
		}
	case StateBooking:
		out = bookingActions(s.Booking.Step)
	case StatePartOrdering:
		out = orderActions(s.Order.Step)
	}
	return append(out, ActionStartOver)
}

func bookingActions(step BookingStep) []ActionType {
	switch step {
	case BookingTechnicianSelection:
		return []ActionType{ActionSelectTechnician, ActionResumeTroubleshooting}
	case BookingTimeSlot:
		return []ActionType{ActionSelectSlot, ActionResumeTroubleshooting}
	case BookingCustomerDetails:
		return []ActionType{ActionSubmitCustomer, ActionResumeTroubleshooting}
	case BookingPayment:
		return []ActionType{ActionConfirmBooking, ActionResumeTroubleshooting}
	}
	return []ActionType{ActionResumeTroubleshooting}
}

func orderActions(step OrderStep) []ActionType {
	switch step {
	case OrderAddressConfirmation:
		return []ActionType{ActionConfirmAddress, ActionCancelOrder}
	case OrderPaymentConfirmation:
		return []ActionType{ActionConfirmPayment, ActionBackToAddress, ActionCancelOrder}
	case OrderTechnicianSelection:
		return []ActionType{ActionSelectOrderTechnician, ActionCancelOrder}
	case OrderTechnicianTimeSlot:
		return []ActionType{ActionSelectOrderSlot, ActionCancelOrder}
	case OrderCombinedConfirm:
		return []ActionType{ActionConfirmCombined, ActionSelectOrderSlot, ActionCancelOrder}
	}
	return []ActionType{ActionCancelOrder}
}

