package booking_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

type memoryTechnicians struct {
	items []appliance.Technician
}

func (m *memoryTechnicians) All(context.Context) ([]appliance.Technician, error) { return m.items, nil }

func (m *memoryTechnicians) ByID(_ context.Context, id string) (appliance.Technician, bool, error) {
	for _, t := range m.items {
		if t.ID == id {
			return t, true, nil
		}
	}
	return appliance.Technician{}, false, nil
}

func (m *memoryTechnicians) AvailableFor(_ context.Context, applianceType string) ([]appliance.Technician, error) {
	var out []appliance.Technician
	for _, t := range m.items {
		if t.IsAvailableFor(applianceType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryTechnicians) ClearCache() {}

type memoryBookings struct {
	saved []appliance.Booking
}

func (m *memoryBookings) Save(_ context.Context, b appliance.Booking) error {
	m.saved = append(m.saved, b)
	return nil
}

func (m *memoryBookings) All(context.Context) ([]appliance.Booking, error) { return m.saved, nil }

func (m *memoryBookings) ByID(_ context.Context, id string) (appliance.Booking, bool, error) {
	for _, b := range m.saved {
		if b.BookingID == id {
			return b, true, nil
		}
	}
	return appliance.Booking{}, false, nil
}

type fixedKB struct {
	fee float64
}

func (f fixedKB) Problems(context.Context) ([]appliance.Problem, error) { return nil, nil }
func (f fixedKB) DangerousKeywords(context.Context) ([]string, error)  { return nil, nil }
func (f fixedKB) TechnicianFee(context.Context) (float64, error)       { return f.fee, nil }
func (f fixedKB) ClearCache()                                          {}

func testConfig() booking.Config {
	return booking.Config{
		CombinedTechnicianFee: 125,
		TaxRate:               0.08,
		ShippingCost:          9.99,
		SlotWindowDays:        7,
		DeliveryMinDays:       3,
		DeliveryMaxDays:       7,
		DispatchTrackingURL:   "https://track.example.com/dispatch/",
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var everyDay = []appliance.WeeklySlots{
	{Day: "Monday", Slots: []string{"9:00 AM - 11:00 AM", "1:00 PM - 3:00 PM"}},
	{Day: "Tuesday", Slots: []string{"9:00 AM - 11:00 AM"}},
	{Day: "Wednesday", Slots: []string{"9:00 AM - 11:00 AM"}},
	{Day: "Thursday", Slots: []string{"9:00 AM - 11:00 AM"}},
	{Day: "Friday", Slots: []string{"9:00 AM - 11:00 AM"}},
	{Day: "Saturday", Slots: []string{"10:00 AM - 1:00 PM"}},
	{Day: "Sunday", Slots: []string{"12:00 PM - 2:00 PM"}},
}

func TestAvailableSlots(t *testing.T) {
	t.Parallel()
	tech := appliance.Technician{TimeSlots: []appliance.WeeklySlots{
		{Day: "Monday", Slots: []string{"9:00 AM - 11:00 AM", "1:00 PM - 3:00 PM"}},
	}}
	sunday := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)

	slots := booking.AvailableSlots(tech, sunday, 7)
	require.Len(t, slots, 2)
	require.Equal(t, "March 03, 2025", slots[0].Date)
	require.Equal(t, "Monday", slots[0].Day)
	require.Equal(t, "March 03, 2025 - 1:00 PM - 3:00 PM", slots[1].Label())
	require.Empty(t, booking.AvailableSlots(appliance.Technician{}, sunday, 7))
}

func TestCombinedSlotsUseTechnicianWeekdays(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	arrival := now.AddDate(0, 0, 7) // Sunday March 9

	slots, ok := booking.CombinedSlots(appliance.Technician{TimeSlots: everyDay}, arrival, now)
	require.True(t, ok)
	require.Len(t, slots, booking.CombinedSlotCount)
	require.True(t, slots[0].BeforeArrival)
	require.Equal(t, "March 06, 2025", slots[0].Date)
	require.Equal(t, "9:00 AM - 11:00 AM", slots[0].Time)
	require.False(t, slots[1].BeforeArrival)
	require.Equal(t, "March 10, 2025", slots[1].Date)
	require.Equal(t, "9:00 AM - 11:00 AM", slots[1].Time)
	require.Equal(t, "March 12, 2025", slots[2].Date)
}

func TestCombinedSlotsFallback(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)

	slots, ok := booking.CombinedSlots(appliance.Technician{}, now.AddDate(0, 0, 7), now)
	require.True(t, ok)
	require.Equal(t, []string{"10:00 AM - 12:00 PM", "10:00 AM - 12:00 PM", "2:00 PM - 4:00 PM"},
		[]string{slots[0].Time, slots[1].Time, slots[2].Time})
	require.True(t, slots[0].BeforeArrival)

	slots, ok = booking.CombinedSlots(appliance.Technician{}, now.AddDate(0, 0, 3), now)
	require.False(t, ok)
	require.Len(t, slots, 2)
}

func TestQuoteAndCombinedCharge(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	quote := cfg.Quote(45.5)
	require.InDelta(t, 3.64, quote.Tax, 1e-9)
	require.InDelta(t, 9.99, quote.Shipping, 1e-9)
	require.InDelta(t, 59.13, quote.Total, 1e-9)

	charge := cfg.CombinedCharge()
	require.InDelta(t, 125.0, charge.Fee, 1e-9)
	require.InDelta(t, 10.0, charge.Tax, 1e-9)
	require.InDelta(t, 135.0, charge.Total, 1e-9)
}

func TestEstimateDeliveryWithinBounds(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		d := testConfig().EstimateDelivery(now)
		require.GreaterOrEqual(t, d.Days, 3)
		require.LessOrEqual(t, d.Days, 7)
		require.Equal(t, d.At.Format("January 02, 2006"), d.Date)
	}
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()
	require.Regexp(t, `^TRK-[A-Z0-9]{6}$`, booking.NewTrackingID())
	require.Regexp(t, `^DSP-[A-Z0-9]{6}$`, booking.NewDispatchID())
	require.Equal(t, "123 Main Street, New York, NY 10001", booking.DefaultAddress().OneLine())
	require.Equal(t, "4.0", booking.FormatRating(4))
	require.Equal(t, "4.8", booking.FormatRating(4.8))
}

func TestConfirmBooking(t *testing.T) {
	t.Parallel()
	tech := appliance.Technician{ID: "tech-1", Name: "Jane Smith", Rating: 4.8, BaseFee: 95, TimeSlots: everyDay}
	store := &memoryBookings{}
	svc := booking.NewService(testConfig(), &memoryTechnicians{items: []appliance.Technician{tech}}, store, fixedKB{fee: 125}, newTestLogger())
	slot := booking.AvailableSlots(tech, time.Now(), 7)[0]

	_, err := svc.Confirm(context.Background(), booking.Request{Technician: tech, Slot: slot, Customer: appliance.Customer{Name: "Ada"}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Empty(t, store.saved)

	conf, err := svc.Confirm(context.Background(), booking.Request{
		Appliance:  appliance.Appliance{Brand: "LG", Model: "WM3900"},
		Problem:    "Drum does not spin",
		Customer:   appliance.Customer{Name: "Ada", Phone: "555-0100", Address: "1 Loop Rd"},
		Slot:       slot,
		Technician: tech,
		Parts:      []appliance.Part{{Name: "Belt", PartNumber: "B1", Price: 20.5}},
		Payment:    appliance.PayNow,
	})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	require.Equal(t, appliance.PaymentPaid, conf.Booking.PaymentStatus)
	require.InDelta(t, 115.5, conf.Booking.Cost.Total(), 1e-9)
	require.Contains(t, conf.Message, "**Booking ID:** "+conf.Booking.BookingID)
	require.Contains(t, conf.Message, "https://track.example.com/dispatch/"+conf.DispatchID)
	require.Contains(t, conf.Message, "(⭐ 4.8/5.0)")
	require.Contains(t, conf.Message, "**Total:** $115.50")

	found, err := svc.Lookup(context.Background(), conf.Booking.BookingID)
	require.NoError(t, err)
	require.Equal(t, conf.Booking.BookingID, found.BookingID)

	_, err = svc.Lookup(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestVisitFeeFallsBackToKnowledgeBase(t *testing.T) {
	t.Parallel()
	svc := booking.NewService(testConfig(), &memoryTechnicians{}, &memoryBookings{}, fixedKB{fee: 140}, newTestLogger())
	require.InDelta(t, 140.0, svc.VisitFee(context.Background(), appliance.Technician{}), 1e-9)
	require.InDelta(t, 80.0, svc.VisitFee(context.Background(), appliance.Technician{BaseFee: 80}), 1e-9)
}

func TestConfirmCombined(t *testing.T) {
	t.Parallel()
	tech := appliance.Technician{ID: "tech-2", Name: "Bob", Rating: 5}
	store := &memoryBookings{}
	cfg := testConfig()
	svc := booking.NewService(cfg, &memoryTechnicians{items: []appliance.Technician{tech}}, store, nil, newTestLogger())
	part := appliance.Part{Name: "Door Seal Kit", PartNumber: "N/A", Price: 34.99}
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	slots, ok := booking.CombinedSlots(tech, now.AddDate(0, 0, 7), now)
	require.True(t, ok)

	conf, err := svc.ConfirmCombined(context.Background(), booking.CombinedRequest{
		Appliance:    appliance.Appliance{Brand: "GE", Model: "X"},
		Address:      booking.DefaultAddress(),
		Slot:         slots[1],
		Technician:   tech,
		Part:         part,
		Quote:        cfg.Quote(part.Price),
		TrackingID:   "TRK-ABC123",
		DeliveryDate: "March 09, 2025",
	})
	require.NoError(t, err)
	saved := store.saved[0]
	require.Equal(t, "Part replacement: Door Seal Kit", saved.Problem)
	require.Equal(t, appliance.PayNow, saved.PaymentOption)
	require.Equal(t, appliance.PaymentPaid, saved.PaymentStatus)
	require.InDelta(t, 135.0, saved.Cost.TechnicianFee, 1e-9)
	require.InDelta(t, 34.99, saved.Cost.PartsTotal, 1e-9)
	require.Equal(t, "123 Main Street, New York, NY 10001", saved.Customer.Address)
	require.Contains(t, conf.Message, "✅ **Order & Booking Confirmed!**")
	require.Contains(t, conf.Message, "Tracking ID: `TRK-ABC123`")
}
