package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
)

const orderDateLayout = "2006-01-02 15:04:05"

func (e *Engine) startBooking(ctx context.Context, s *Session) error {
	return e.startBookingFrom(ctx, s, "")
}

// startBookingFrom opens the booking wizard. utterance is the customer text
// that asked for it, if any.
func (e *Engine) startBookingFrom(ctx context.Context, s *Session, utterance string) error {
	if _, err := Transition(s.Flow, EventBookingRequested); err != nil {
		return err
	}
	techs, err := e.bookings.TechniciansFor(ctx, s.ApplianceType())
	if err != nil {
		return err
	}
	if utterance != "" {
		e.hear(s, utterance)
	}
	_ = move(s, EventBookingRequested)

	s.ShowTroubleshootOrBook = false
	s.IssueSummary = e.orchestrator.SummarizeIssue(ctx, s.CurrentAppliance(), s.History())
	s.Booking = BookingDraft{Step: BookingTechnicianSelection, Technicians: techs}
	if len(techs) == 0 {
		s.Notice = noTechniciansNotice
	}
	e.say(s, booking.BookingStartMessage(s.IssueSummary))
	return nil
}

func expectBookingStep(s *Session, action ActionType, step BookingStep) error {
	if s.Flow != StateBooking || s.Booking.Step != step {
		return unhandled(s, action)
	}
	return nil
}

func (e *Engine) selectTechnician(ctx context.Context, s *Session, a Action) error {
	if err := expectBookingStep(s, a.Type, BookingTechnicianSelection); err != nil {
		return err
	}
	tech, err := e.bookings.Technician(ctx, a.TechnicianID)
	if err != nil {
		return err
	}
	s.Booking.TechnicianID = tech.ID
	s.Booking.Slots = e.bookings.Slots(tech)
	s.Booking.Slot = nil
	s.Booking.Step = BookingTimeSlot
	if len(s.Booking.Slots) == 0 {
		s.Notice = "No available time slots for this technician."
	}
	return nil
}

func (e *Engine) selectSlot(s *Session, a Action) error {
	if err := expectBookingStep(s, a.Type, BookingTimeSlot); err != nil {
		return err
	}
	slot, ok := pick(s.Booking.Slots, a.Index)
	if !ok {
		return invalid(msgSelectSlot)
	}
	s.Booking.Slot = &slot
	s.Booking.Step = BookingCustomerDetails
	return nil
}

func (e *Engine) submitCustomer(ctx context.Context, s *Session, a Action) error {
	if err := expectBookingStep(s, a.Type, BookingCustomerDetails); err != nil {
		return err
	}
	var customer appliance.Customer
	if a.Customer != nil {
		customer = appliance.Customer{
			Name:    strings.TrimSpace(a.Customer.Name),
			Phone:   strings.TrimSpace(a.Customer.Phone),
			Address: strings.TrimSpace(a.Customer.Address),
		}
	}
	if !customer.Validate() {
		return invalid("Please fill in all fields.")
	}
	tech, err := e.bookings.Technician(ctx, s.Booking.TechnicianID)
	if err != nil {
		return err
	}
	s.Booking.Customer = customer
	s.Booking.Cost = e.bookings.Cost(ctx, tech, s.SuggestedParts)
	s.Booking.Step = BookingPayment
	return nil
}

func (e *Engine) confirmBooking(ctx context.Context, s *Session, a Action) error {
	if err := expectBookingStep(s, a.Type, BookingPayment); err != nil {
		return err
	}
	if s.Booking.Slot == nil {
		return invalid(msgSelectSlot)
	}
	tech, err := e.bookings.Technician(ctx, s.Booking.TechnicianID)
	if err != nil {
		return err
	}
	problem := s.IssueSummary
	if problem == "" {
		problem = s.ProblemDescription
	}
	conf, err := e.bookings.Confirm(ctx, booking.Request{
		Appliance:  s.CurrentAppliance(),
		Problem:    problem,
		Customer:   s.Booking.Customer,
		Slot:       *s.Booking.Slot,
		Technician: tech,
		Parts:      s.SuggestedParts,
		Payment:    a.Payment,
	})
	if err != nil {
		return err
	}
	if err := move(s, EventBookingConfirmed); err != nil {
		return err
	}
	s.Booking.Payment = conf.Booking.PaymentOption
	s.Booking.ConfirmedID = conf.Booking.BookingID
	s.addBooking(conf.Booking.BookingID)
	s.Booking.DispatchID = conf.DispatchID
	s.Booking.Step = BookingConfirmed
	e.say(s, conf.Message)
	return nil
}

func (e *Engine) resumeTroubleshooting(ctx context.Context, s *Session) error {
	if err := move(s, EventTroubleshootResumed); err != nil {
		return err
	}
	s.Booking = BookingDraft{}
	e.resumeGuidance(ctx, s)
	return nil
}

// orderPart starts a part order from a guidance part or a catalog
// selection. WithTechnician pairs the order with an install visit.
func (e *Engine) orderPart(s *Session, a Action) error {
	if _, err := Transition(s.Flow, EventPartOrderStarted); err != nil {
		return err
	}
	part, components, fromCatalog, ok := resolveOrderPart(s, a)
	if !ok {
		return invalid(msgSelectPart)
	}
	_ = move(s, EventPartOrderStarted)

	cfg := e.bookings.Config()
	s.ShowTroubleshootOrBook = false
	s.Order = OrderDraft{
		Step:       OrderAddressConfirmation,
		Part:       &part,
		Components: components,
		Combined:   a.WithTechnician,
		Address:    booking.DefaultAddress(),
		Delivery:   cfg.EstimateDelivery(e.now()),
		Quote:      cfg.Quote(part.Price),
	}
	if s.Order.Combined {
		s.Order.Charge = cfg.CombinedCharge()
	}
	user, assistant := orderStartMessages(part, components, fromCatalog, a.WithTechnician)
	e.hear(s, user)
	e.say(s, assistant)
	return nil
}

func resolveOrderPart(s *Session, a Action) (part appliance.Part, components []appliance.Part, fromCatalog, ok bool) {
	if len(a.CatalogParts) > 0 {
		for _, want := range a.CatalogParts {
			for _, cp := range s.IssueParts {
				if cp.Filename == want || cp.Name == want {
					components = append(components, cp.AsPart())
					break
				}
			}
		}
		part, ok = appliance.CombineParts(components)
		return part, components, true, ok
	}
	if a.Index != nil {
		part, ok = pick(s.SuggestedParts, a.Index)
		return part, nil, false, ok
	}
	if len(s.SuggestedParts) == 1 {
		return s.SuggestedParts[0], nil, false, true
	}
	return appliance.Part{}, nil, false, false
}

func expectOrderStep(s *Session, action ActionType, step OrderStep) error {
	if s.Flow != StatePartOrdering || s.Order.Step != step || s.Order.Part == nil {
		return unhandled(s, action)
	}
	return nil
}

// confirmAddress accepts the delivery address. Combined orders skip the
// separate payment step and go straight to technician selection; they are
// paid in one transaction at the end.
func (e *Engine) confirmAddress(ctx context.Context, s *Session, a Action) error {
	if err := expectOrderStep(s, a.Type, OrderAddressConfirmation); err != nil {
		return err
	}
	addr := s.Order.Address
	if a.Address != nil {
		addr = trimAddress(*a.Address)
	}
	if !addr.Complete() {
		return invalid("Please fill in all fields.")
	}

	var techs []appliance.Technician
	if s.Order.Combined {
		var err error
		if techs, err = e.bookings.TechniciansFor(ctx, s.ApplianceType()); err != nil {
			return err
		}
	}

	s.Order.Address = addr
	s.Order.Quote = e.bookings.Config().Quote(s.Order.Part.Price)
	if !s.Order.Combined {
		s.Order.Step = OrderPaymentConfirmation
		return nil
	}
	s.Order.TrackingID = booking.NewTrackingID()
	e.offerOrderTechnicians(s, techs)
	return nil
}

func (e *Engine) offerOrderTechnicians(s *Session, techs []appliance.Technician) {
	s.Order.Technicians = techs
	s.Order.Step = OrderTechnicianSelection
	if len(techs) == 0 {
		s.Notice = noTechniciansNotice
	}
}

func trimAddress(a booking.Address) booking.Address {
	return booking.Address{
		FullName: strings.TrimSpace(a.FullName),
		Street:   strings.TrimSpace(a.Street),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		ZipCode:  strings.TrimSpace(a.ZipCode),
		Phone:    strings.TrimSpace(a.Phone),
		Email:    strings.TrimSpace(a.Email),
	}
}

func (e *Engine) backToAddress(s *Session) error {
	if err := expectOrderStep(s, ActionBackToAddress, OrderPaymentConfirmation); err != nil {
		return err
	}
	s.Order.Step = OrderAddressConfirmation
	return nil
}

func (e *Engine) confirmPayment(s *Session, a Action) error {
	if err := expectOrderStep(s, a.Type, OrderPaymentConfirmation); err != nil {
		return err
	}
	if !a.Confirmed {
		return invalid(msgConfirmPayment)
	}

	trackingID := booking.NewTrackingID()
	part := *s.Order.Part
	if err := move(s, EventOrderCompleted); err != nil {
		return err
	}
	s.OrderHistory = append(s.OrderHistory, booking.OrderRecord{
		TrackingID:   trackingID,
		Part:         part,
		Address:      s.Order.Address,
		Total:        s.Order.Quote.Total,
		DeliveryDate: s.Order.Delivery.Date,
		OrderDate:    e.now().Format(orderDateLayout),
	})
	e.say(s, booking.OrderConfirmationMessage(part, s.Order.Quote.Total, trackingID, s.Order.Address.Email, s.Order.Delivery.Date))
	e.logger.Info("part order placed", "session_id", s.ID, "tracking_id", trackingID, "total", s.Order.Quote.Total)
	s.Order = OrderDraft{}
	return nil
}

func (e *Engine) selectOrderTechnician(ctx context.Context, s *Session, a Action) error {
	if err := expectOrderStep(s, a.Type, OrderTechnicianSelection); err != nil {
		return err
	}
	tech, err := e.bookings.Technician(ctx, a.TechnicianID)
	if err != nil {
		return err
	}
	slots, ok := booking.CombinedSlots(tech, s.Order.Delivery.At, e.now())
	s.Order.TechnicianID = tech.ID
	s.Order.Slots = slots
	s.Order.Slot = nil
	s.Order.Step = OrderTechnicianTimeSlot
	if !ok {
		s.Notice = noComboSlotsNotice
	}
	return nil
}

// selectOrderSlot picks the install visit. The slot may be changed again
// from the confirmation step.
func (e *Engine) selectOrderSlot(s *Session, a Action) error {
	if s.Order.Step == OrderCombinedConfirm {
		s.Order.Step = OrderTechnicianTimeSlot
		if err := e.selectOrderSlot(s, a); err != nil {
			s.Order.Step = OrderCombinedConfirm
			return err
		}
		return nil
	}
	if err := expectOrderStep(s, a.Type, OrderTechnicianTimeSlot); err != nil {
		return err
	}
	slot, ok := pick(s.Order.Slots, a.Index)
	if !ok {
		return invalid(msgSelectSlot)
	}
	s.Order.Slot = &slot
	s.Order.Step = OrderCombinedConfirm
	if slot.BeforeArrival {
		s.Notice = fmt.Sprintf(beforeArrivalNotice, s.Order.Delivery.Date)
	}
	return nil
}

// confirmCombined places the part order and books the install visit as a
// single paid transaction.
func (e *Engine) confirmCombined(ctx context.Context, s *Session, a Action) error {
	if err := expectOrderStep(s, a.Type, OrderCombinedConfirm); err != nil {
		return err
	}
	if !a.Confirmed {
		return invalid(msgAuthorizeCharge)
	}
	if s.Order.Slot == nil {
		return invalid(msgSelectSlot)
	}
	tech, err := e.bookings.Technician(ctx, s.Order.TechnicianID)
	if err != nil {
		return err
	}
	part := *s.Order.Part
	conf, err := e.bookings.ConfirmCombined(ctx, booking.CombinedRequest{
		Appliance:    s.CurrentAppliance(),
		Problem:      s.IssueSummary,
		Address:      s.Order.Address,
		Slot:         *s.Order.Slot,
		Technician:   tech,
		Part:         part,
		Quote:        s.Order.Quote,
		TrackingID:   s.Order.TrackingID,
		DeliveryDate: s.Order.Delivery.Date,
	})
	if err != nil {
		return err
	}
	if err := move(s, EventOrderCompleted); err != nil {
		return err
	}
	s.OrderHistory = append(s.OrderHistory, booking.OrderRecord{
		TrackingID:   s.Order.TrackingID,
		Part:         part,
		Address:      s.Order.Address,
		Total:        s.Order.Quote.Total,
		DeliveryDate: s.Order.Delivery.Date,
		OrderDate:    e.now().Format(orderDateLayout),
	})
	s.addBooking(conf.Booking.BookingID)
	e.say(s, conf.Message)
	s.Order = OrderDraft{}
	return nil
}

func (e *Engine) cancelOrder(ctx context.Context, s *Session) error {
	if err := move(s, EventOrderCancelled); err != nil {
		return err
	}
	s.Order = OrderDraft{}
	e.resumeGuidance(ctx, s)
	return nil
}
