package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("preparing")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, status)

	status, err = ParseStatus(" DELIVERED ")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, status)

	_, err = ParseStatus("REFUNDED")
	assert.Error(t, err)
}

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusPreparing},
		{StatusPending, StatusCancelled},
		{StatusPreparing, StatusShipping},
		{StatusPreparing, StatusCancelled},
		{StatusShipping, StatusDelivered},
	}
	for _, tc := range legal {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to Status }{
		{StatusPending, StatusDelivered}, // no skipping
		{StatusPending, StatusShipping},
		{StatusShipping, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusDelivered},
		{StatusPending, StatusPending},
	}
	for _, tc := range illegal {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPreparing.Terminal())
	assert.False(t, StatusShipping.Terminal())
}

func TestActiveClassificationMatchesNonTerminal(t *testing.T) {
	// The "active" set must stay consistent with the state machine.
	for _, s := range []Status{StatusPending, StatusPreparing, StatusShipping, StatusDelivered, StatusCancelled} {
		assert.Equal(t, !s.Terminal(), s.Active(), "status %s", s)
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).Cancellable())
	assert.True(t, (&Order{Status: StatusPreparing}).Cancellable())
	assert.False(t, (&Order{Status: StatusShipping}).Cancellable())
	assert.False(t, (&Order{Status: StatusDelivered}).Cancellable())
	assert.False(t, (&Order{Status: StatusCancelled}).Cancellable())
}

func TestCancelSetsReason(t *testing.T) {
	order := &Order{Status: StatusPending}
	order.Cancel("changed mind")
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, "changed mind", order.CancelReason)
}
