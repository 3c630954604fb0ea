package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types, one per state transition the core can make.
const (
	OfferProposed  = "offer.proposed"
	OfferCountered = "offer.countered"
	OfferAccepted  = "offer.accepted"
	OfferDeclined  = "offer.declined"

	BookingRequested       = "booking.requested"
	BookingCounterProposed = "booking.counter_proposed"
	BookingConfirmed       = "booking.confirmed"
	BookingAwaitingParent  = "booking.awaiting_parent_approval"
	BookingDeclined        = "booking.declined"
	BookingCancelled       = "booking.cancelled"
	BookingCompleted       = "booking.completed"

	SessionScheduled  = "session.scheduled"
	SessionLinkReady  = "session.link_ready"
	SessionLinkFailed = "session.link_failed"
	SessionJoined     = "session.joined"
	SessionNoShow     = "session.no_show"
	SessionCompleted  = "session.completed"
	SessionCancelled  = "session.cancelled"
)

// Event is an immutable record of one successful state transition.
// Exactly one event is published per transition; delivery and retry
// are entirely the subscribers' concern.
type Event struct {
	Type       string      `json:"type"`
	OfferID    *uuid.UUID  `json:"offer_id,omitempty"`
	BookingID  *uuid.UUID  `json:"booking_id,omitempty"`
	SessionID  *uuid.UUID  `json:"session_id,omitempty"`
	Recipients []uuid.UUID `json:"recipients"`
	Summary    string      `json:"summary"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Handler func(Event)

var (
	mu       sync.RWMutex
	handlers []Handler
)

// Subscribe registers a handler for all future events. Handlers run on
// their own goroutine per event and must tolerate delivery after the
// publishing request has completed.
func Subscribe(h Handler) {
	mu.Lock()
	handlers = append(handlers, h)
	mu.Unlock()
}

// Publish fans the event out to every subscriber. It never blocks the
// caller on a slow subscriber.
func Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	mu.RLock()
	subs := make([]Handler, len(handlers))
	copy(subs, handlers)
	mu.RUnlock()

	for _, h := range subs {
		go h(e)
	}
}

// Reset drops all subscribers. Test hook.
func Reset() {
	mu.Lock()
	handlers = nil
	mu.Unlock()
}
