package appliance

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentOption selects when the customer pays.
type PaymentOption string

const (
	PayNow     PaymentOption = "pay_now"
	PayOnVisit PaymentOption = "pay_on_visit"
)

// Valid reports whether the option is one of the known values.
func (p PaymentOption) Valid() bool {
	return p == PayNow || p == PayOnVisit
}

// Label is the human readable payment option.
func (p PaymentOption) Label() string {
	if p == PayNow {
		return "Paid"
	}
	return "Pay on Visit"
}

// PaymentStatus tracks settlement of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

// StatusFor maps the chosen option to its initial status.
func StatusFor(option PaymentOption) PaymentStatus {
	if option == PayNow {
		return PaymentPaid
	}
	return PaymentPending
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ISOTime is a timestamp serialized in ISO-8601. Decoding also accepts
// timestamps without a zone offset, which are read as local time.
type ISOTime struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t ISOTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ISOTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid iso timestamp %q", raw)
}

// TimeSlot is a concrete visit window.
type TimeSlot struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	DateTime ISOTime `json:"datetime"`
}

// Label renders the slot as "<date> - <time>".
func (s TimeSlot) Label() string {
	return s.Date + " - " + s.Time
}

// CostBreakdown splits a booking price into labor and parts.
type CostBreakdown struct {
	TechnicianFee float64 `json:"technician_fee"`
	PartsTotal    float64 `json:"parts_total"`
}

// Total is the technician fee plus the parts total.
func (c CostBreakdown) Total() float64 {
	return c.TechnicianFee + c.PartsTotal
}

// MarshalJSON writes the derived total alongside the inputs.
func (c CostBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TechnicianFee float64 `json:"technician_fee"`
		PartsTotal    float64 `json:"parts_total"`
		Total         float64 `json:"total"`
	}{c.TechnicianFee, c.PartsTotal, c.Total()})
}

// Customer holds contact details captured during booking.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate requires every field.
func (c Customer) Validate() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Phone) != "" && strings.TrimSpace(c.Address) != ""
}

// Booking is a confirmed technician visit.
type Booking struct {
	BookingID      string        `json:"booking_id"`
	Timestamp      ISOTime       `json:"timestamp"`
	Appliance      Appliance     `json:"appliance"`
	Problem        string        `json:"problem"`
	Customer       Customer      `json:"customer"`
	TimeSlot       TimeSlot      `json:"time_slot"`
	Cost           CostBreakdown `json:"cost"`
	TechnicianID   string        `json:"technician_id"`
	TechnicianName string        `json:"technician_name"`
	PaymentOption  PaymentOption `json:"payment_option"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
}

// UnmarshalJSON applies the payment defaults for older records.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type alias Booking
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.PaymentOption == "" {
		decoded.PaymentOption = PayOnVisit
	}
	if decoded.PaymentStatus == "" {
		decoded.PaymentStatus = PaymentPending
	}
	*b = Booking(decoded)
	return nil
}

// NewBookingID returns an 8 character upper-case identifier.
func NewBookingID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
