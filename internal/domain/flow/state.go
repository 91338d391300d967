package flow

import (
	"errors"
	"fmt"

	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

// State is the conversation stage a session is in.
type State string

const (
	StateCategorySelection State = "category_selection"
	StateIdentification    State = "identification"
	StateIssueListing      State = "issue_listing"
	StateTroubleshooting   State = "troubleshooting"
	StateBooking           State = "booking"
	StatePartOrdering      State = "part_ordering"
)

// Event drives a state change.
type Event string

const (
	EventCategorySelected    Event = "category_selected"
	EventApplianceConfirmed  Event = "appliance_confirmed"
	EventCategoryReselected  Event = "category_reselected"
	EventTroubleshootChosen  Event = "troubleshoot_chosen"
	EventBookingRequested    Event = "booking_requested"
	EventPartOrderStarted    Event = "part_order_started"
	EventBookingConfirmed    Event = "booking_confirmed"
	EventTroubleshootResumed Event = "troubleshoot_resumed"
	EventOrderCompleted      Event = "order_completed"
	EventOrderCancelled      Event = "order_cancelled"
	EventReset               Event = "reset"
)

// ErrUnhandledEvent marks an event that is not legal in the current state.
var ErrUnhandledEvent = errors.New("unhandled flow event")

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StateCategorySelection, EventCategorySelected}:   StateIdentification,
	{StateCategorySelection, EventApplianceConfirmed}: StateIssueListing,
	{StateIdentification, EventApplianceConfirmed}:    StateIssueListing,
	{StateIdentification, EventCategoryReselected}:    StateCategorySelection,
	{StateIssueListing, EventTroubleshootChosen}:      StateTroubleshooting,
	{StateIssueListing, EventBookingRequested}:        StateBooking,
	{StateIssueListing, EventPartOrderStarted}:        StatePartOrdering,
	{StateTroubleshooting, EventBookingRequested}:     StateBooking,
	{StateTroubleshooting, EventPartOrderStarted}:     StatePartOrdering,
	{StateBooking, EventBookingConfirmed}:             StateBooking,
	{StateBooking, EventTroubleshootResumed}:          StateTroubleshooting,
	{StatePartOrdering, EventOrderCompleted}:          StateTroubleshooting,
	{StatePartOrdering, EventOrderCancelled}:          StateTroubleshooting,
}

// Transition looks up the next state. Illegal pairs leave the state as is
// and return an unhandled_event error wrapping ErrUnhandledEvent.
func Transition(from State, ev Event) (State, error) {
	if ev == EventReset {
		return StateCategorySelection, nil
	}
	if to, ok := transitions[edge{from, ev}]; ok {
		return to, nil
	}
	return from, apperrors.Wrap(apperrors.CodeUnhandledEvent, fmt.Sprintf("%s is not allowed during %s", ev, from), ErrUnhandledEvent)
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateCategorySelection, StateIdentification, StateIssueListing,
		StateTroubleshooting, StateBooking, StatePartOrdering:
		return true
	}
	return false
}
