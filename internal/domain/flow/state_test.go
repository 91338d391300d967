package flow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		from  flow.State
		event flow.Event
		want  flow.State
		ok    bool
	}{
		{"category picked", flow.StateCategorySelection, flow.EventCategorySelected, flow.StateIdentification, true},
		{"manual entry from landing", flow.StateCategorySelection, flow.EventApplianceConfirmed, flow.StateIssueListing, true},
		{"appliance confirmed", flow.StateIdentification, flow.EventApplianceConfirmed, flow.StateIssueListing, true},
		{"back to categories", flow.StateIdentification, flow.EventCategoryReselected, flow.StateCategorySelection, true},
		{"diy", flow.StateIssueListing, flow.EventTroubleshootChosen, flow.StateTroubleshooting, true},
		{"book from issues", flow.StateIssueListing, flow.EventBookingRequested, flow.StateBooking, true},
		{"order from issues", flow.StateIssueListing, flow.EventPartOrderStarted, flow.StatePartOrdering, true},
		{"book from troubleshooting", flow.StateTroubleshooting, flow.EventBookingRequested, flow.StateBooking, true},
		{"order from troubleshooting", flow.StateTroubleshooting, flow.EventPartOrderStarted, flow.StatePartOrdering, true},
		{"booking confirmed stays", flow.StateBooking, flow.EventBookingConfirmed, flow.StateBooking, true},
		{"resume", flow.StateBooking, flow.EventTroubleshootResumed, flow.StateTroubleshooting, true},
		{"order done", flow.StatePartOrdering, flow.EventOrderCompleted, flow.StateTroubleshooting, true},
		{"order cancelled", flow.StatePartOrdering, flow.EventOrderCancelled, flow.StateTroubleshooting, true},
		{"reset from booking", flow.StateBooking, flow.EventReset, flow.StateCategorySelection, true},
		{"reset from landing", flow.StateCategorySelection, flow.EventReset, flow.StateCategorySelection, true},
		{"booking before identification", flow.StateCategorySelection, flow.EventBookingRequested, flow.StateCategorySelection, false},
		{"confirm outside booking", flow.StateTroubleshooting, flow.EventBookingConfirmed, flow.StateTroubleshooting, false},
		{"order from booking", flow.StateBooking, flow.EventPartOrderStarted, flow.StateBooking, false},
		{"reselect after listing", flow.StateIssueListing, flow.EventCategoryReselected, flow.StateIssueListing, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := flow.Transition(tc.from, tc.event)
			require.Equal(t, tc.want, got)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, flow.ErrUnhandledEvent))
			require.True(t, apperrors.IsCode(err, apperrors.CodeUnhandledEvent))
		})
	}
}

func TestStateValid(t *testing.T) {
	t.Parallel()
	require.True(t, flow.StatePartOrdering.Valid())
	require.False(t, flow.State("checkout").Valid())
}
