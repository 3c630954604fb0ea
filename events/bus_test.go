package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	Subscribe(func(e Event) { first <- e })
	Subscribe(func(e Event) { second <- e })

	Publish(Event{Type: BookingConfirmed, Summary: "confirmed"})

	for _, ch := range []chan Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, BookingConfirmed, e.Type)
			assert.False(t, e.OccurredAt.IsZero())
		case <-time.After(time.Second):
			require.FailNow(t, "subscriber never received the event")
		}
	}
}

func TestPublishKeepsAnExplicitTimestamp(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	got := make(chan Event, 1)
	Subscribe(func(e Event) { got <- e })

	stamped := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)
	Publish(Event{Type: SessionScheduled, OccurredAt: stamped})

	select {
	case e := <-got:
		assert.True(t, stamped.Equal(e.OccurredAt))
	case <-time.After(time.Second):
		require.FailNow(t, "subscriber never received the event")
	}
}

func TestResetDropsSubscribers(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	got := make(chan Event, 1)
	Subscribe(func(e Event) { got <- e })
	Reset()

	Publish(Event{Type: OfferDeclined})

	select {
	case <-got:
		t.Fatal("handler survived Reset")
	case <-time.After(50 * time.Millisecond):
	}
}
