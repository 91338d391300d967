package booking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/pkg/util"
)

// Config carries pricing and scheduling rules.
type Config struct {
	CombinedTechnicianFee float64
	TaxRate               float64
	ShippingCost          float64
	SlotWindowDays        int
	DeliveryMinDays       int
	DeliveryMaxDays       int
	DispatchTrackingURL   string
}

// Slot is a visit window offered to the customer.
type Slot struct {
	Date          string            `json:"date"`
	Day           string            `json:"day"`
	Time          string            `json:"time"`
	DateTime      appliance.ISOTime `json:"datetime"`
	BeforeArrival bool              `json:"before_arrival,omitempty"`
}

// Label renders "<date> - <time>".
func (s Slot) Label() string {
	return s.Date + " - " + s.Time
}

// TimeSlot converts the offer into the persisted booking slot.
func (s Slot) TimeSlot() appliance.TimeSlot {
	return appliance.TimeSlot{Date: s.Date, Time: s.Time, DateTime: s.DateTime}
}

// Address is a delivery address for part orders.
type Address struct {
	FullName string `json:"full_name"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// DefaultAddress is the address on file offered for confirmation.
func DefaultAddress() Address {
	return Address{
		FullName: "John Doe",
		Street:   "123 Main Street",
		City:     "New York",
		State:    "NY",
		ZipCode:  "10001",
		Phone:    "+1 (555) 123-4567",
		Email:    "john.doe@example.com",
	}
}

// Complete reports whether every delivery field is filled in.
func (a Address) Complete() bool {
	for _, v := range []string{a.FullName, a.Street, a.City, a.State, a.ZipCode, a.Phone, a.Email} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// OneLine renders "street, city, state zip".
func (a Address) OneLine() string {
	return fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.ZipCode)
}

// Card is the payment method on file. Nothing is charged.
type Card struct {
	CardType       string `json:"card_type"`
	Number         string `json:"card_number"`
	CardholderName string `json:"cardholder_name"`
	ExpiryDate     string `json:"expiry_date"`
}

// DefaultCard is the masked card shown on payment steps.
func DefaultCard() Card {
	return Card{CardType: "Visa", Number: "**** **** **** 4532", CardholderName: "John Doe", ExpiryDate: "12/25"}
}

// OrderQuote itemizes a part order.
type OrderQuote struct {
	PartPrice float64 `json:"part_price"`
	Shipping  float64 `json:"shipping"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

// TechnicianCharge itemizes the fixed visit fee of a combined order.
type TechnicianCharge struct {
	Fee   float64 `json:"fee"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
}

// Delivery is the estimated arrival of an ordered part.
type Delivery struct {
	Days int       `json:"days"`
	Date string    `json:"date"`
	At   time.Time `json:"at"`
}

// OrderRecord is a placed part order kept in the session history.
type OrderRecord struct {
	TrackingID   string         `json:"tracking_id"`
	Part         appliance.Part `json:"part"`
	Address      Address        `json:"address"`
	Total        float64        `json:"total"`
	DeliveryDate string         `json:"delivery_date"`
	OrderDate    string         `json:"order_date"`
}

// RoundCents rounds to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Quote prices a part order with shipping and tax.
func (c Config) Quote(partPrice float64) OrderQuote {
	tax := RoundCents(partPrice * c.TaxRate)
	return OrderQuote{
		PartPrice: partPrice,
		Shipping:  c.ShippingCost,
		Tax:       tax,
		Total:     partPrice + c.ShippingCost + tax,
	}
}

// CombinedCharge is the fixed technician fee plus tax for combined orders.
func (c Config) CombinedCharge() TechnicianCharge {
	tax := RoundCents(c.CombinedTechnicianFee * c.TaxRate)
	return TechnicianCharge{Fee: c.CombinedTechnicianFee, Tax: tax, Total: c.CombinedTechnicianFee + tax}
}

// EstimateDelivery picks a delivery window between the configured bounds.
func (c Config) EstimateDelivery(now time.Time) Delivery {
	days := util.RandomIntBetween(c.DeliveryMinDays, c.DeliveryMaxDays)
	at := now.AddDate(0, 0, days)
	return Delivery{Days: days, Date: util.FormatLongDate(at), At: at}
}

// DispatchURL links a dispatch ID to the tracking page.
func (c Config) DispatchURL(dispatchID string) string {
	return c.DispatchTrackingURL + dispatchID
}

// NewTrackingID returns a part order tracking ID, TRK-XXXXXX.
func NewTrackingID() string {
	return "TRK-" + util.RandomCode(6)
}

// NewDispatchID returns a technician dispatch ID, DSP-XXXXXX.
func NewDispatchID() string {
	return "DSP-" + util.RandomCode(6)
}
