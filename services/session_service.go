package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/video"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterializeSession creates the session for a booking on its first
// transition into CONFIRMED. Re-entrant calls for an already
// materialized booking return the existing session; there is exactly
// one session per booking that has ever been confirmed.
func MaterializeSession(tx *gorm.DB, booking *models.Booking) (*models.Session, error) {
	var existing models.Session
	err := tx.First(&existing, "booking_id = ?", booking.ID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if booking.ConfirmedStartAt == nil || booking.ConfirmedEndAt == nil {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "a session can only be materialized for a confirmed booking",
		}
	}

	charge := booking.PriceTTD
	fee, payout := SplitCharge(booking.PriceTTD, charge)

	session := models.Session{
		BookingID:          booking.ID,
		StudentID:          booking.StudentID,
		TutorID:            booking.TutorID,
		ScheduledStartAt:   *booking.ConfirmedStartAt,
		ScheduledEndAt:     *booking.ConfirmedEndAt,
		DurationMinutes:    int(booking.ConfirmedEndAt.Sub(*booking.ConfirmedStartAt).Minutes()),
		Status:             models.SessionScheduled,
		ProvisioningStatus: models.ProvisioningPending,
		ChargeAmountTTD:    charge,
		PlatformFeeTTD:     fee,
		TutorPayoutTTD:     payout,
	}
	if err := tx.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ProvisionMeetingLink asks the video provider for a join link. A
// confirmed booking without a working link is degraded but valid:
// failures are recorded on the session for retry, never propagated to
// the transition that confirmed the booking.
func ProvisionMeetingLink(db *gorm.DB, sessionID uuid.UUID) {
	var session models.Session
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		log.Printf("🔥 Provisioning: session %s not found: %v", sessionID, err)
		return
	}
	if session.ProvisioningStatus == models.ProvisioningReady || session.Status == models.SessionCancelled {
		return
	}
	if video.Client == nil {
		log.Printf("⚠️ Provisioning skipped for session %s: no video provider configured", sessionID)
		return
	}

	meeting, err := video.Client.ProvisionMeeting(session.ID, session.ScheduledStartAt, session.DurationMinutes)
	if errors.Is(err, video.ErrPending) {
		log.Printf("Provisioning still pending for session %s", sessionID)
		return
	}
	if err != nil {
		log.Printf("🔥 Provisioning failed for session %s: %v", sessionID, err)
		if dbErr := db.Model(&session).Update("provisioning_status", models.ProvisioningFailed).Error; dbErr != nil {
			log.Printf("🔥 Failed to flag session %s for provisioning retry: %v", sessionID, dbErr)
		}
		bookingID := session.BookingID
		events.Publish(events.Event{
			Type:       events.SessionLinkFailed,
			BookingID:  &bookingID,
			SessionID:  &session.ID,
			Recipients: []uuid.UUID{session.TutorID},
			Summary:    "Meeting-link provisioning failed; the session needs attention.",
		})
		return
	}

	if err := db.Model(&session).Updates(map[string]interface{}{
		"join_url":            meeting.JoinURL,
		"provider":            meeting.Provider,
		"provisioning_status": models.ProvisioningReady,
	}).Error; err != nil {
		log.Printf("🔥 Failed to store join link for session %s: %v", sessionID, err)
		return
	}

	bookingID := session.BookingID
	events.Publish(events.Event{
		Type:       events.SessionLinkReady,
		BookingID:  &bookingID,
		SessionID:  &session.ID,
		Recipients: []uuid.UUID{session.StudentID, session.TutorID},
		Summary:    "Your session's meeting link is ready.",
	})
}

// RecordJoin notes that a party joined the session and advances the
// status: the first join opens the session, the student's join puts
// it in progress. The student join timestamp is what the no-show
// evaluator inspects.
func RecordJoin(db *gorm.DB, session *models.Session, actorID uuid.UUID) (*models.Session, error) {
	if actorID != session.StudentID && actorID != session.TutorID {
		return nil, &UnauthorizedError{Action: "join session", Hint: "only the session's student or tutor may join"}
	}
	if session.Settled() {
		return nil, &AlreadySettledError{SessionID: session.ID.String()}
	}
	if session.Status != models.SessionScheduled && session.Status != models.SessionJoinOpen && session.Status != models.SessionInProgress {
		return nil, &InvalidStateError{
			Entity: "session",
			Status: string(session.Status),
			Hint:   "this session can no longer be joined",
		}
	}

	now := time.Now()
	updates := map[string]interface{}{}
	if actorID == session.StudentID {
		if session.StudentJoinedAt == nil {
			updates["student_joined_at"] = now
		}
		if session.Status != models.SessionInProgress {
			updates["status"] = models.SessionInProgress
		}
	} else {
		if session.TutorJoinedAt == nil {
			updates["tutor_joined_at"] = now
		}
		if session.Status == models.SessionScheduled {
			updates["status"] = models.SessionJoinOpen
		}
	}

	if len(updates) > 0 {
		res := db.Model(&models.Session{}).
			Where("id = ? AND status = ?", session.ID, session.Status).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, &StaleStateError{Entity: "session", ExpectedStatus: string(session.Status)}
		}
	}

	if err := db.First(session, "id = ?", session.ID).Error; err != nil {
		return nil, err
	}

	bookingID := session.BookingID
	events.Publish(events.Event{
		Type:       events.SessionJoined,
		BookingID:  &bookingID,
		SessionID:  &session.ID,
		Recipients: []uuid.UUID{session.StudentID, session.TutorID},
		Summary:    fmt.Sprintf("A participant joined the session (now %s).", session.Status),
	})
	return session, nil
}

// SessionsNeedingAttention lists sessions whose meeting link could not
// be provisioned, for operator follow-up.
func SessionsNeedingAttention(db *gorm.DB) ([]models.Session, error) {
	var sessions []models.Session
	err := db.
		Where("provisioning_status = ? AND status IN ?", models.ProvisioningFailed,
			[]models.SessionStatus{models.SessionScheduled, models.SessionJoinOpen}).
		Order("scheduled_start_at asc").
		Find(&sessions).Error
	return sessions, err
}
