package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusCanTransitionTo(t *testing.T) {
	t.Run("legal moves", func(t *testing.T) {
		assert.True(t, BookingPending.CanTransitionTo(BookingConfirmed))
		assert.True(t, BookingPending.CanTransitionTo(BookingCounterProposed))
		assert.True(t, BookingCounterProposed.CanTransitionTo(BookingPendingParentApproval))
		assert.True(t, BookingCounterProposed.CanTransitionTo(BookingCounterProposed))
		assert.True(t, BookingPendingParentApproval.CanTransitionTo(BookingCancelled))
		assert.True(t, BookingConfirmed.CanTransitionTo(BookingCompleted))
	})

	t.Run("illegal moves", func(t *testing.T) {
		assert.False(t, BookingConfirmed.CanTransitionTo(BookingPending))
		assert.False(t, BookingPending.CanTransitionTo(BookingCompleted))
		assert.False(t, BookingDeclined.CanTransitionTo(BookingConfirmed))
		assert.False(t, BookingCancelled.CanTransitionTo(BookingPending))
		assert.False(t, BookingCompleted.CanTransitionTo(BookingCancelled))
	})
}

func TestBookingStatusTerminal(t *testing.T) {
	for _, s := range []BookingStatus{BookingDeclined, BookingCancelled, BookingCompleted} {
		assert.True(t, s.Terminal(), "status %s", s)
	}
	for _, s := range []BookingStatus{BookingPending, BookingCounterProposed, BookingPendingParentApproval, BookingConfirmed} {
		assert.False(t, s.Terminal(), "status %s", s)
	}
}
