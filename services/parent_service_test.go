package services

import (
	"testing"
	"time"

	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// gatedBooking drives a managed student's request through the tutor's
// acceptance, leaving the booking parked at the parent approval gate.
func gatedBooking(t *testing.T, db *gorm.DB, f fixtures) *models.Booking {
	t.Helper()
	booking := requestTestBooking(t, db, f, 60)
	parked, err := TutorAcceptBooking(db, booking, f.tutor.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingPendingParentApproval, parked.Status)
	return parked
}

func TestParentApprovalGate(t *testing.T) {
	db, f := newTestEnv(t)
	linkParent(t, db, f.parent.ID, f.student.ID, true)

	t.Run("tutor acceptance parks a managed student's booking", func(t *testing.T) {
		booking := gatedBooking(t, db, f)
		assert.Nil(t, booking.ConfirmedStartAt)

		var sessionCount int64
		db.Model(&models.Session{}).Where("booking_id = ?", booking.ID).Count(&sessionCount)
		assert.EqualValues(t, 0, sessionCount)
	})

	t.Run("an unmanaged link does not gate", func(t *testing.T) {
		other := createUser(t, db, "Josiah Gopaul", models.RoleStudent)
		linkParent(t, db, f.parent.ID, other.ID, false)

		start := futureAt(24)
		booking, err := RequestBooking(db, other.ID, f.tutor.ID, f.subject.ID, start, start.Add(time.Hour), nil)
		require.NoError(t, err)
		confirmed, err := TutorAcceptBooking(db, booking, f.tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, confirmed.Status)
	})
}

func TestParentApprove(t *testing.T) {
	db, f := newTestEnv(t)
	linkParent(t, db, f.parent.ID, f.student.ID, true)

	t.Run("confirms the booking and records who approved", func(t *testing.T) {
		booking := gatedBooking(t, db, f)

		confirmed, err := ParentApprove(db, booking, f.parent.ID, "fine by me")
		require.NoError(t, err)
		assert.Equal(t, models.BookingConfirmed, confirmed.Status)
		require.NotNil(t, confirmed.ParentApprovedBy)
		assert.Equal(t, f.parent.ID, *confirmed.ParentApprovedBy)
		assert.NotNil(t, confirmed.ParentApprovedAt)
		require.NotNil(t, confirmed.ConfirmedStartAt)
		assert.True(t, booking.RequestedStartAt.Equal(*confirmed.ConfirmedStartAt))

		session := reloadSession(t, db, booking.ID)
		assert.Equal(t, models.SessionScheduled, session.Status)
	})

	t.Run("an unlinked parent may not approve", func(t *testing.T) {
		booking := gatedBooking(t, db, f)
		stranger := createUser(t, db, "Cheryl Baptiste", models.RoleParent)

		_, err := ParentApprove(db, booking, stranger.ID, "")
		var unauthorized *UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
	})

	t.Run("only one parent action wins the gate", func(t *testing.T) {
		secondParent := createUser(t, db, "Dexter Ramlogan", models.RoleParent)
		linkParent(t, db, secondParent.ID, f.student.ID, true)
		booking := gatedBooking(t, db, f)

		snapshotA := reloadBooking(t, db, booking.ID)
		snapshotB := reloadBooking(t, db, booking.ID)

		_, err := ParentApprove(db, snapshotA, f.parent.ID, "")
		require.NoError(t, err)

		_, err = ParentReject(db, snapshotB, secondParent.ID, "too expensive")
		assert.True(t, IsStaleState(err))

		assert.Equal(t, models.BookingConfirmed, reloadBooking(t, db, booking.ID).Status)
	})
}

func TestParentReject(t *testing.T) {
	db, f := newTestEnv(t)
	linkParent(t, db, f.parent.ID, f.student.ID, true)

	t.Run("declines the booking with the reason on the thread", func(t *testing.T) {
		booking := gatedBooking(t, db, f)

		declined, err := ParentReject(db, booking, f.parent.ID, "schedule conflict")
		require.NoError(t, err)
		assert.Equal(t, models.BookingDeclined, declined.Status)
		assert.Nil(t, declined.ConfirmedStartAt)

		var sessionCount int64
		db.Model(&models.Session{}).Where("booking_id = ?", booking.ID).Count(&sessionCount)
		assert.EqualValues(t, 0, sessionCount)

		var msg models.BookingMessage
		require.NoError(t, db.Where("booking_id = ? AND sender_id = ?", booking.ID, f.parent.ID).First(&msg).Error)
		assert.Contains(t, msg.Body, "schedule conflict")
	})

	t.Run("a reason is mandatory", func(t *testing.T) {
		booking := gatedBooking(t, db, f)

		_, err := ParentReject(db, booking, f.parent.ID, "")
		assert.True(t, IsInvalidState(err))
		assert.Equal(t, models.BookingPendingParentApproval, reloadBooking(t, db, booking.ID).Status)
	})
}

func TestParentSuggestAlternateTime(t *testing.T) {
	db, f := newTestEnv(t)
	linkParent(t, db, f.parent.ID, f.student.ID, true)
	booking := gatedBooking(t, db, f)

	newStart := futureAt(48)
	msg, err := ParentSuggestAlternateTime(db, booking, f.parent.ID, newStart, newStart.Add(time.Hour), "weekends suit us better")
	require.NoError(t, err)
	assert.Equal(t, models.MessageTimeProposal, msg.MessageType)
	assert.Equal(t, models.BookingCounterProposed, booking.Status)

	// The student can take the parent's slot, which loops the booking
	// back through the gate for final approval.
	parked, err := StudentAcceptCounter(db, booking, f.student.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPendingParentApproval, parked.Status)
	assert.True(t, newStart.Equal(parked.RequestedStartAt))

	confirmed, err := ParentApprove(db, parked, f.parent.ID, "")
	require.NoError(t, err)
	require.NotNil(t, confirmed.ConfirmedStartAt)
	assert.True(t, newStart.Equal(*confirmed.ConfirmedStartAt))
}
