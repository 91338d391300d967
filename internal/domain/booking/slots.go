package booking

import (
	"time"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/pkg/util"
)

const (
	morningWindow   = "10:00 AM - 12:00 PM"
	afternoonWindow = "2:00 PM - 4:00 PM"
	// CombinedSlotCount is the number of visit offers for a combined order.
	CombinedSlotCount = 3
)

// AvailableSlots lists the technician's weekday slots over the next days,
// starting tomorrow.
func AvailableSlots(tech appliance.Technician, now time.Time, days int) []Slot {
	var out []Slot
	for offset := 1; offset <= days; offset++ {
		date := now.AddDate(0, 0, offset)
		day := date.Weekday().String()
		for _, window := range tech.SlotsOn(day) {
			out = append(out, newSlot(date, window, false))
		}
	}
	return out
}

// CombinedSlots offers one visit three days before the part arrives and two
// after it (one and three days). Each uses the technician's first slot on
// that weekday; if any is missing, fixed morning/afternoon windows are used
// instead and the before-arrival offer is kept only while still in the
// future. ok is false when fewer than three offers remain.
func CombinedSlots(tech appliance.Technician, arrival, now time.Time) (slots []Slot, ok bool) {
	before := arrival.AddDate(0, 0, -3)
	after1 := arrival.AddDate(0, 0, 1)
	after3 := arrival.AddDate(0, 0, 3)

	for _, candidate := range []struct {
		date   time.Time
		before bool
	}{{before, true}, {after1, false}, {after3, false}} {
		windows := tech.SlotsOn(candidate.date.Weekday().String())
		if len(windows) == 0 {
			continue
		}
		slots = append(slots, newSlot(candidate.date, windows[0], candidate.before))
	}
	if len(slots) >= CombinedSlotCount {
		return slots, true
	}

	slots = slots[:0]
	if before.After(now) {
		slots = append(slots, newSlot(before, morningWindow, true))
	}
	slots = append(slots,
		newSlot(after1, morningWindow, false),
		newSlot(after3, afternoonWindow, false),
	)
	return slots, len(slots) >= CombinedSlotCount
}

func newSlot(date time.Time, window string, beforeArrival bool) Slot {
	return Slot{
		Date:          util.FormatLongDate(date),
		Day:           date.Weekday().String(),
		Time:          window,
		DateTime:      appliance.ISOTime{Time: date},
		BeforeArrival: beforeArrival,
	}
}
