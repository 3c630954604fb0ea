package services

import (
	"errors"
	"testing"
	"time"

	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/video"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubProvider struct {
	meeting *video.Meeting
	err     error
}

func (s *stubProvider) ProvisionMeeting(uuid.UUID, time.Time, int) (*video.Meeting, error) {
	return s.meeting, s.err
}

func withVideoProvider(t *testing.T, p video.Provider) {
	t.Helper()
	prev := video.Client
	video.Client = p
	t.Cleanup(func() { video.Client = prev })
}

// confirmedSession drives a booking to CONFIRMED and returns its
// freshly materialized session.
func confirmedSession(t *testing.T, db *gorm.DB, f fixtures, durationMinutes int) (*models.Booking, *models.Session) {
	t.Helper()
	booking := requestTestBooking(t, db, f, durationMinutes)
	confirmed, err := TutorAcceptBooking(db, booking, f.tutor.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingConfirmed, confirmed.Status)
	return confirmed, reloadSession(t, db, confirmed.ID)
}

func TestMaterializeSession(t *testing.T) {
	db, f := newTestEnv(t)

	t.Run("is idempotent per booking", func(t *testing.T) {
		booking, session := confirmedSession(t, db, f, 60)

		again, err := MaterializeSession(db, booking)
		require.NoError(t, err)
		assert.Equal(t, session.ID, again.ID)

		var sessionCount int64
		db.Model(&models.Session{}).Where("booking_id = ?", booking.ID).Count(&sessionCount)
		assert.EqualValues(t, 1, sessionCount)
	})

	t.Run("refuses a booking without a confirmed window", func(t *testing.T) {
		booking := requestTestBooking(t, db, f, 60)

		_, err := MaterializeSession(db, booking)
		assert.True(t, IsInvalidState(err))
	})

	t.Run("fixes the charge split at materialization", func(t *testing.T) {
		_, session := confirmedSession(t, db, f, 60)

		// 60 minutes at 120 TTD/hour lands in the 15% tier.
		assert.Equal(t, 120.0, session.ChargeAmountTTD)
		assert.Equal(t, 18.0, session.PlatformFeeTTD)
		assert.Equal(t, 102.0, session.TutorPayoutTTD)
		assert.Equal(t, models.ProvisioningPending, session.ProvisioningStatus)
	})
}

func TestProvisionMeetingLink(t *testing.T) {
	t.Run("stores the join link when the provider delivers", func(t *testing.T) {
		db, f := newTestEnv(t)
		withVideoProvider(t, &stubProvider{meeting: &video.Meeting{JoinURL: "https://classroomtt.daily.co/session-x", Provider: "daily"}})
		booking, session := confirmedSession(t, db, f, 60)

		ProvisionMeetingLink(db, session.ID)

		ready := reloadSession(t, db, booking.ID)
		assert.Equal(t, models.ProvisioningReady, ready.ProvisioningStatus)
		require.NotNil(t, ready.JoinURL)
		assert.Equal(t, "https://classroomtt.daily.co/session-x", *ready.JoinURL)
	})

	t.Run("a hard failure flags the session for retry", func(t *testing.T) {
		db, f := newTestEnv(t)
		withVideoProvider(t, &stubProvider{err: errors.New("provider quota exceeded")})
		booking, session := confirmedSession(t, db, f, 60)

		ProvisionMeetingLink(db, session.ID)

		failed := reloadSession(t, db, booking.ID)
		assert.Equal(t, models.ProvisioningFailed, failed.ProvisioningStatus)
		// The booking itself stays confirmed; a missing link is
		// degraded, not invalid.
		assert.Equal(t, models.BookingConfirmed, reloadBooking(t, db, booking.ID).Status)
	})

	t.Run("a pending provider answer leaves the session pending", func(t *testing.T) {
		db, f := newTestEnv(t)
		withVideoProvider(t, &stubProvider{err: video.ErrPending})
		booking, session := confirmedSession(t, db, f, 60)

		ProvisionMeetingLink(db, session.ID)

		assert.Equal(t, models.ProvisioningPending, reloadSession(t, db, booking.ID).ProvisioningStatus)
	})
}

func TestRecordJoin(t *testing.T) {
	db, f := newTestEnv(t)

	t.Run("tutor join opens the session, student join starts it", func(t *testing.T) {
		booking, session := confirmedSession(t, db, f, 60)

		session, err := RecordJoin(db, session, f.tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionJoinOpen, session.Status)
		assert.NotNil(t, session.TutorJoinedAt)
		assert.Nil(t, session.StudentJoinedAt)

		session, err = RecordJoin(db, session, f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionInProgress, session.Status)
		assert.NotNil(t, session.StudentJoinedAt)

		assert.Equal(t, models.SessionInProgress, reloadSession(t, db, booking.ID).Status)
	})

	t.Run("only the session's parties may join", func(t *testing.T) {
		_, session := confirmedSession(t, db, f, 60)

		_, err := RecordJoin(db, session, f.parent.ID)
		var unauthorized *UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
	})

	t.Run("a cancelled session cannot be joined", func(t *testing.T) {
		booking, _ := confirmedSession(t, db, f, 60)
		_, err := CancelBooking(db, booking, f.student.ID, models.ActorStudent, "not today")
		require.NoError(t, err)

		session := reloadSession(t, db, booking.ID)
		_, err = RecordJoin(db, session, f.student.ID)
		var settled *AlreadySettledError
		require.ErrorAs(t, err, &settled)
	})
}

func TestSessionsNeedingAttention(t *testing.T) {
	db, f := newTestEnv(t)

	confirmedSession(t, db, f, 60)
	_, broken := confirmedSession(t, db, f, 60)
	require.NoError(t, db.Model(broken).Update("provisioning_status", models.ProvisioningFailed).Error)

	attention, err := SessionsNeedingAttention(db)
	require.NoError(t, err)
	require.Len(t, attention, 1)
	assert.Equal(t, broken.ID, attention[0].ID)
}
