package services

import (
	"testing"
	"time"

	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBooking(t *testing.T) {
	db, f := newTestEnv(t)

	t.Run("creates a pending booking priced from the subject rate", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 90)

		assert.Equal(t, models.BookingPending, booking.Status)
		assert.NotEmpty(t, booking.Reference)
		// 90 minutes at 120 TTD/hour.
		assert.Equal(t, 180.0, booking.PriceTTD)
		assert.Nil(t, booking.ConfirmedStartAt)

		var msgCount int64
		db.Model(&models.BookingMessage{}).Where("booking_id = ?", booking.ID).Count(&msgCount)
		assert.EqualValues(t, 1, msgCount)
	})

	t.Run("rejects a window shorter than 30 minutes", func(t *testing.T) {
		start := futureAt(24)
		_, err := RequestBooking(db, f.student.ID, f.tutor.ID, f.subject.ID, start, start.Add(15*time.Minute), nil)
		var badWindow *InvalidTimeWindowError
		require.ErrorAs(t, err, &badWindow)
	})
}

func TestTutorAcceptBooking(t *testing.T) {
	db, f := newTestEnv(t)

	t.Run("confirms at the requested window and materializes a session", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)

		confirmed, err := TutorAcceptBooking(db, booking, f.tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, confirmed.Status)
		require.NotNil(t, confirmed.ConfirmedStartAt)
		assert.True(t, booking.RequestedStartAt.Equal(*confirmed.ConfirmedStartAt))

		session := reloadSession(t, db, booking.ID)
		assert.Equal(t, models.SessionScheduled, session.Status)
		assert.True(t, booking.RequestedStartAt.Equal(session.ScheduledStartAt))
	})

	t.Run("only the booking's tutor may accept", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)

		_, err := TutorAcceptBooking(db, booking, f.student.ID)
		var unauthorized *UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
	})

	t.Run("a confirmed booking cannot be accepted again", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)
		_, err := TutorAcceptBooking(db, booking, f.tutor.ID)
		require.NoError(t, err)

		_, err = TutorAcceptBooking(db, booking, f.tutor.ID)
		assert.True(t, IsInvalidState(err))
	})
}

func TestTutorDeclineBooking(t *testing.T) {
	db, f := newTestEnv(t)
	booking := requestTestBooking(t, db, f, 60)

	declined, err := TutorDeclineBooking(db, booking, f.tutor.ID, "fully booked that week")
	require.NoError(t, err)
	assert.Equal(t, models.BookingDeclined, declined.Status)
	assert.True(t, declined.Status.Terminal())

	_, err = TutorAcceptBooking(db, declined, f.tutor.ID)
	assert.True(t, IsInvalidState(err))
}

func TestCounterProposalFlow(t *testing.T) {
	db, f := newTestEnv(t)

	t.Run("tutor may re-propose while a counter is still open", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)

		firstStart := futureAt(48)
		_, err := TutorCounterPropose(db, booking, f.tutor.ID, firstStart, firstStart.Add(60*time.Minute), "morning works better")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCounterProposed, booking.Status)

		secondStart := futureAt(72)
		secondMsg, err := TutorCounterPropose(db, booking, f.tutor.ID, secondStart, secondStart.Add(90*time.Minute), "or this slot")
		require.NoError(t, err)

		confirmed, err := StudentAcceptCounter(db, booking, f.student.ID, secondMsg.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, confirmed.Status)
		require.NotNil(t, confirmed.ConfirmedStartAt)
		assert.True(t, secondStart.Equal(*confirmed.ConfirmedStartAt))
		assert.True(t, secondStart.Add(90*time.Minute).Equal(*confirmed.ConfirmedEndAt))
	})

	t.Run("accepting a plain message as a time proposal fails", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)
		start := futureAt(48)
		_, err := TutorCounterPropose(db, booking, f.tutor.ID, start, start.Add(60*time.Minute), "")
		require.NoError(t, err)

		chat, err := AddBookingMessage(db, booking, f.student.ID, "can we do Sunday instead?")
		require.NoError(t, err)

		_, err = StudentAcceptCounter(db, booking, f.student.ID, chat.ID)
		assert.True(t, IsInvalidState(err))
	})
}

// Two actors race on the same pending booking: whoever commits first
// wins, the loser's stale snapshot gets StaleState.
func TestBookingStaleState(t *testing.T) {
	db, f := newTestEnv(t)
	booking := requestTestBooking(t, db, f, 60)

	snapshotA := reloadBooking(t, db, booking.ID)
	snapshotB := reloadBooking(t, db, booking.ID)

	_, err := TutorAcceptBooking(db, snapshotA, f.tutor.ID)
	require.NoError(t, err)

	_, err = TutorDeclineBooking(db, snapshotB, f.tutor.ID, "changed my mind")
	assert.True(t, IsStaleState(err))

	assert.Equal(t, models.BookingConfirmed, reloadBooking(t, db, booking.ID).Status)
}

func TestCancelBooking(t *testing.T) {
	t.Run("cancelling a confirmed booking settles the session at zero charge", func(t *testing.T) {
		db, f := newTestEnv(t)
		booking := requestTestBooking(t, db, f, 60)
		_, err := TutorAcceptBooking(db, booking, f.tutor.ID)
		require.NoError(t, err)

		cancelled, err := CancelBooking(db, booking, f.student.ID, models.ActorStudent, "student is unwell")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)

		// The confirmed window belongs only to confirmed and completed
		// bookings; the session keeps the scheduled times.
		reloaded := reloadBooking(t, db, booking.ID)
		assert.Nil(t, reloaded.ConfirmedStartAt)
		assert.Nil(t, reloaded.ConfirmedEndAt)

		session := reloadSession(t, db, booking.ID)
		assert.Equal(t, models.SessionCancelled, session.Status)
		assert.True(t, session.Settled())
		assert.Equal(t, 0.0, session.ChargeAmountTTD)
		assert.Equal(t, 0.0, session.PlatformFeeTTD)
		assert.Equal(t, 0.0, session.TutorPayoutTTD)
	})

	t.Run("a linked parent may cancel", func(t *testing.T) {
		db, f := newTestEnv(t)
		linkParent(t, db, f.parent.ID, f.student.ID, false)
		booking := requestTestBooking(t, db, f, 60)

		cancelled, err := CancelBooking(db, booking, f.parent.ID, models.ActorParent, "clashes with school event")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)
	})

	t.Run("a stranger may not cancel", func(t *testing.T) {
		db, f := newTestEnv(t)
		booking := requestTestBooking(t, db, f, 60)
		outsider := createUser(t, db, "Nadia Persad", models.RoleStudent)

		_, err := CancelBooking(db, booking, outsider.ID, models.ActorStudent, "nope")
		var unauthorized *UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
	})

	t.Run("a terminal booking cannot be cancelled", func(t *testing.T) {
		db, f := newTestEnv(t)
		booking := requestTestBooking(t, db, f, 60)
		_, err := TutorDeclineBooking(db, booking, f.tutor.ID, "no availability")
		require.NoError(t, err)

		_, err = CancelBooking(db, booking, f.student.ID, models.ActorStudent, "too late anyway")
		assert.True(t, IsInvalidState(err))
	})
}

func TestAddBookingMessage(t *testing.T) {
	db, f := newTestEnv(t)
	booking := requestTestBooking(t, db, f, 60)

	msg, err := AddBookingMessage(db, booking, f.tutor.ID, "looking forward to it")
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.MessageType)

	outsider := createUser(t, db, "Ravi Maharaj", models.RoleTutor)
	_, err = AddBookingMessage(db, booking, outsider.ID, "hello")
	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
}
