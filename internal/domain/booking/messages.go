package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

// FormatRating renders a rating the way the technician cards show it, 4.0
// rather than 4.
func FormatRating(r float64) string {
	if r == float64(int64(r)) {
		return strconv.FormatFloat(r, 'f', 1, 64)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// BookingStartMessage opens the booking wizard.
func BookingStartMessage(summary string) string {
	return fmt.Sprintf("I'll help you book a technician!\n\n**Issue Summary:** %s\n\nLet me show you available technicians...", summary)
}

// BookingSummary itemizes a visit before the customer confirms it.
func BookingSummary(a appliance.Appliance, problem string, slot Slot, cost appliance.CostBreakdown, parts []appliance.Part) string {
	serial := a.Serial
	if serial == "" {
		serial = "Unknown"
	}
	return fmt.Sprintf(`**Booking Summary:**

**Appliance:**
- Brand: %s
- Model: %s
- Serial: %s

**Problem:** %s

**Time Slot:** %s

**Cost Breakdown:**
- Technician Fee: $%.2f
%s
**Total: $%.2f**`, a.Brand, a.Model, serial, problem, slot.Label(), cost.TechnicianFee, partsLines(parts), cost.Total())
}

func partsLines(parts []appliance.Part) string {
	if len(parts) == 0 {
		return "\n**Parts:** None specified\n"
	}
	var b strings.Builder
	b.WriteString("\n**Parts:**\n")
	for _, p := range parts {
		fmt.Fprintf(&b, "- %s (Part #%s): $%.2f\n", p.Name, p.PartNumber, p.Price)
	}
	return b.String()
}

// BookingConfirmationMessage is posted to the chat once a visit is booked.
func BookingConfirmationMessage(b appliance.Booking, tech appliance.Technician, dispatchURL, dispatchID string) string {
	return fmt.Sprintf(`✅ **Booking Confirmed!**

**Booking ID:** %s

**Technician:** %s (⭐ %s/5.0)
**Time Slot:** %s
**Payment:** %s
**Total:** $%.2f

**📦 Track Your Dispatch:** [Click here to track your technician dispatch](%s) (Dispatch ID: `+"`%s`"+`)

Your technician will contact you before the visit. Thank you!`,
		b.BookingID, tech.Name, FormatRating(tech.Rating), b.TimeSlot.Label(), b.PaymentOption.Label(), b.Cost.Total(), dispatchURL, dispatchID)
}

// OrderConfirmationMessage is posted when a part order is placed.
func OrderConfirmationMessage(part appliance.Part, total float64, trackingID, email, deliveryDate string) string {
	if strings.TrimSpace(email) == "" {
		email = "your email"
	}
	return fmt.Sprintf(`**Order Confirmation**

**Part Ordered:** %s
**Part Number:** %s
**Order Total:** $%.2f

**📦 Tracking ID:** `+"`%s`"+`

You can use this tracking ID to track your order status. We'll send you email updates at %s as your order progresses.

**Expected Delivery Date:** %s

Thank you for your order! If you have any questions, please don't hesitate to contact our support team.`,
		part.Name, part.PartNumber, total, trackingID, email, deliveryDate)
}

// CombinedConfirmationMessage is posted when a part order and its install
// visit are confirmed together.
func CombinedConfirmationMessage(req CombinedRequest, b appliance.Booking, charge TechnicianCharge, dispatchURL, dispatchID string) string {
	return fmt.Sprintf(`✅ **Order & Booking Confirmed!**

**📦 Part Order:**
- Part: %s (Part #: %s)
- Tracking ID: `+"`%s`"+`
- Order Total: $%.2f
- Expected Delivery: %s

**👨‍🔧 Technician Booking:**
- Booking ID: %s
- Technician: %s (⭐ %s/5.0)
- Visit Date: %s at %s
- Technician Fee: $%.2f
- Tax: $%.2f
- Technician Fee (with Tax): $%.2f
- **📦 Track Your Dispatch:** [Click here to track your technician dispatch](%s) (Dispatch ID: `+"`%s`"+`)

**💰 Combined Total: $%.2f**
**Payment Status:** Paid (Combined payment for parts and technician service)

Your part will be delivered first, and the technician will visit on the scheduled date to install it. Thank you!`,
		req.Part.Name, req.Part.PartNumber, req.TrackingID, req.Quote.Total, req.DeliveryDate,
		b.BookingID, req.Technician.Name, FormatRating(req.Technician.Rating), req.Slot.Date, req.Slot.Time,
		charge.Fee, charge.Tax, charge.Total, dispatchURL, dispatchID,
		req.Quote.Total+charge.Total)
}
