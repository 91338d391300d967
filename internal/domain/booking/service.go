package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// Request describes a technician visit to confirm.
type Request struct {
	Appliance  appliance.Appliance
	Problem    string
	Customer   appliance.Customer
	Slot       Slot
	Technician appliance.Technician
	Parts      []appliance.Part
	Payment    appliance.PaymentOption
}

// CombinedRequest describes a part order paired with an install visit.
type CombinedRequest struct {
	Appliance    appliance.Appliance
	Problem      string
	Address      Address
	Slot         Slot
	Technician   appliance.Technician
	Part         appliance.Part
	Quote        OrderQuote
	TrackingID   string
	DeliveryDate string
}

// Confirmation is a saved booking plus the message shown to the customer.
type Confirmation struct {
	Booking    appliance.Booking `json:"booking"`
	DispatchID string            `json:"dispatch_id"`
	Message    string            `json:"message"`
}

// Service schedules technicians and records bookings.
type Service struct {
	cfg         Config
	technicians appliance.TechnicianRepository
	bookings    appliance.BookingRepository
	kb          appliance.KnowledgeBaseRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires the booking domain.
func NewService(cfg Config, technicians appliance.TechnicianRepository, bookings appliance.BookingRepository, kb appliance.KnowledgeBaseRepository, logger *slog.Logger) *Service {
	if cfg.SlotWindowDays <= 0 {
		cfg.SlotWindowDays = 7
	}
	return &Service{
		cfg:         cfg,
		technicians: technicians,
		bookings:    bookings,
		kb:          kb,
		logger:      logger.With("component", "booking.service"),
		now:         time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Config exposes the pricing rules.
func (s *Service) Config() Config {
	return s.cfg
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// TechniciansFor lists technicians servicing applianceType. An empty type
// matches generalists only.
func (s *Service) TechniciansFor(ctx context.Context, applianceType string) ([]appliance.Technician, error) {
	if strings.TrimSpace(applianceType) == "" {
		applianceType = appliance.AllAppliances
	}
	return s.technicians.AvailableFor(ctx, applianceType)
}

// Technician looks up one technician.
func (s *Service) Technician(ctx context.Context, id string) (appliance.Technician, error) {
	tech, ok, err := s.technicians.ByID(ctx, id)
	if err != nil {
		return appliance.Technician{}, err
	}
	if !ok {
		return appliance.Technician{}, apperrors.Wrap(apperrors.CodeNotFound, "Technician not found.", nil)
	}
	return tech, nil
}

// Slots lists bookable windows for tech.
func (s *Service) Slots(tech appliance.Technician) []Slot {
	return AvailableSlots(tech, s.now(), s.cfg.SlotWindowDays)
}

// VisitFee is the technician's base fee, or the knowledge base fee when the
// technician does not list one.
func (s *Service) VisitFee(ctx context.Context, tech appliance.Technician) float64 {
	if tech.BaseFee > 0 || s.kb == nil {
		return tech.BaseFee
	}
	fee, err := s.kb.TechnicianFee(ctx)
	if err != nil {
		s.logger.Warn("knowledge base fee unavailable", "error", err)
		return appliance.DefaultTechnicianFee
	}
	return fee
}

// Cost prices a visit with the given parts.
func (s *Service) Cost(ctx context.Context, tech appliance.Technician, parts []appliance.Part) appliance.CostBreakdown {
	return appliance.CostBreakdown{TechnicianFee: s.VisitFee(ctx, tech), PartsTotal: appliance.PartsTotal(parts)}
}

// Confirm validates and saves a booking.
func (s *Service) Confirm(ctx context.Context, req Request) (Confirmation, error) {
	if !req.Customer.Validate() {
		return Confirmation{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Please fill in all fields.", nil)
	}
	payment := req.Payment
	if payment == "" {
		payment = appliance.PayOnVisit
	}
	if !payment.Valid() {
		return Confirmation{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Unknown payment option.", nil)
	}

	record := appliance.Booking{
		BookingID:      appliance.NewBookingID(),
		Timestamp:      appliance.ISOTime{Time: s.now()},
		Appliance:      req.Appliance,
		Problem:        req.Problem,
		Customer:       req.Customer,
		TimeSlot:       req.Slot.TimeSlot(),
		Cost:           s.Cost(ctx, req.Technician, req.Parts),
		TechnicianID:   req.Technician.ID,
		TechnicianName: req.Technician.Name,
		PaymentOption:  payment,
		PaymentStatus:  appliance.StatusFor(payment),
	}
	if err := s.bookings.Save(ctx, record); err != nil {
		return Confirmation{}, err
	}
	dispatchID := NewDispatchID()
	s.logger.Info("booking confirmed", "booking_id", record.BookingID, "technician_id", record.TechnicianID, "payment", payment)
	return Confirmation{
		Booking:    record,
		DispatchID: dispatchID,
		Message:    BookingConfirmationMessage(record, req.Technician, s.cfg.DispatchURL(dispatchID), dispatchID),
	}, nil
}

// ConfirmCombined saves the install visit of a combined order. The visit is
// always paid upfront together with the part.
func (s *Service) ConfirmCombined(ctx context.Context, req CombinedRequest) (Confirmation, error) {
	charge := s.cfg.CombinedCharge()
	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		problem = "Part replacement: " + req.Part.Name
	}
	record := appliance.Booking{
		BookingID: appliance.NewBookingID(),
		Timestamp: appliance.ISOTime{Time: s.now()},
		Appliance: req.Appliance,
		Problem:   problem,
		Customer: appliance.Customer{
			Name:    orNA(req.Address.FullName),
			Phone:   orNA(req.Address.Phone),
			Address: req.Address.OneLine(),
		},
		TimeSlot:       req.Slot.TimeSlot(),
		Cost:           appliance.CostBreakdown{TechnicianFee: charge.Total, PartsTotal: req.Part.Price},
		TechnicianID:   req.Technician.ID,
		TechnicianName: req.Technician.Name,
		PaymentOption:  appliance.PayNow,
		PaymentStatus:  appliance.PaymentPaid,
	}
	if err := s.bookings.Save(ctx, record); err != nil {
		return Confirmation{}, err
	}
	dispatchID := NewDispatchID()
	s.logger.Info("combined order confirmed", "booking_id", record.BookingID, "tracking_id", req.TrackingID)
	return Confirmation{
		Booking:    record,
		DispatchID: dispatchID,
		Message:    CombinedConfirmationMessage(req, record, charge, s.cfg.DispatchURL(dispatchID), dispatchID),
	}, nil
}

// Lookup returns a stored booking.
func (s *Service) Lookup(ctx context.Context, id string) (appliance.Booking, error) {
	record, ok, err := s.bookings.ByID(ctx, strings.ToUpper(strings.TrimSpace(id)))
	if err != nil {
		return appliance.Booking{}, err
	}
	if !ok {
		return appliance.Booking{}, apperrors.Wrap(apperrors.CodeNotFound, "booking not found", nil)
	}
	return record, nil
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}
