package services

import (
	"fmt"
	"log"
	"time"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement policy. A session gets exactly one final charge decision:
// full fee on normal completion (billed at the scheduled end), half
// fee on a student no-show, no fee on cancellation (handled by the
// booking cancellation cascade). SettledAt is the latch; any second
// decision fails with AlreadySettled.

// MarkStudentNoShow is the tutor's claim that the student never
// joined. It is a manual action gated by elapsed time: the system only
// enforces that at least a third of the session duration has passed
// since the scheduled start.
func MarkStudentNoShow(db *gorm.DB, session *models.Session, tutorID uuid.UUID) (*models.Session, error) {
	if session.TutorID != tutorID {
		return nil, &UnauthorizedError{Action: "mark no-show", Hint: "only the session's tutor may claim a student no-show"}
	}
	if session.Settled() {
		return nil, &AlreadySettledError{SessionID: session.ID.String()}
	}
	if session.StudentJoinedAt != nil {
		return nil, &InvalidStateError{
			Entity: "session",
			Status: string(session.Status),
			Hint:   "the student already joined; this session cannot be a no-show",
		}
	}
	if session.Status != models.SessionScheduled && session.Status != models.SessionJoinOpen {
		return nil, &InvalidStateError{
			Entity: "session",
			Status: string(session.Status),
			Hint:   "a no-show can only be claimed on a scheduled or join-open session",
		}
	}

	deadline := session.JoinDeadline()
	now := time.Now()
	if now.Before(deadline) {
		return nil, &TooEarlyError{
			Hint: fmt.Sprintf("the student has until %s to join", deadline.Format(time.Kitchen)),
		}
	}

	charge := NoShowCharge(session.ChargeAmountTTD)
	fee, payout := SplitCharge(session.ChargeAmountTTD, charge)

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ? AND settled_at IS NULL", session.ID, session.Status).
			Updates(map[string]interface{}{
				"status":            models.SessionStudentNoShow,
				"charge_amount_ttd": charge,
				"platform_fee_ttd":  fee,
				"tutor_payout_ttd":  payout,
				"settled_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StaleStateError{Entity: "session", ExpectedStatus: string(session.Status)}
		}
		return completeBookingForSettlement(tx, session, "Session settled as a student no-show; half the session fee applies.")
	})
	if err != nil {
		return nil, err
	}

	session.Status = models.SessionStudentNoShow
	session.ChargeAmountTTD = charge
	session.PlatformFeeTTD = fee
	session.TutorPayoutTTD = payout
	session.SettledAt = &now

	bookingID := session.BookingID
	events.Publish(events.Event{
		Type:       events.SessionNoShow,
		BookingID:  &bookingID,
		SessionID:  &session.ID,
		Recipients: settlementRecipients(db, session),
		Summary:    fmt.Sprintf("The student did not join; a reduced charge of %.2f TTD applies.", charge),
	})

	publishBookingCompleted(db, session)
	go GenerateSettlementReceipt(db, session.ID)
	return session, nil
}

// CompleteSession records the normal-completion settlement: the full
// fee, billed at the scheduled end time regardless of when anyone
// actually joined.
func CompleteSession(db *gorm.DB, session *models.Session, actorID uuid.UUID, actorRole string) (*models.Session, error) {
	if actorRole != models.ActorSystem && actorID != session.TutorID {
		return nil, &UnauthorizedError{Action: "complete session", Hint: "only the session's tutor may mark it complete"}
	}
	if session.Settled() {
		return nil, &AlreadySettledError{SessionID: session.ID.String()}
	}
	if session.Status == models.SessionCancelled {
		return nil, &InvalidStateError{
			Entity: "session",
			Status: string(session.Status),
			Hint:   "a cancelled session cannot be completed",
		}
	}
	if time.Now().Before(session.ScheduledEndAt) {
		return nil, &TooEarlyError{
			Hint: fmt.Sprintf("the session runs until %s", session.ScheduledEndAt.Format(time.Kitchen)),
		}
	}

	// The charge was fixed at confirmation time; completion only
	// latches it. Billing is dated to the scheduled end.
	settledAt := session.ScheduledEndAt

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ? AND settled_at IS NULL", session.ID, session.Status).
			Updates(map[string]interface{}{
				"status":     models.SessionCompletedAssumed,
				"settled_at": settledAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StaleStateError{Entity: "session", ExpectedStatus: string(session.Status)}
		}
		return completeBookingForSettlement(tx, session, "Session completed; the full session fee applies.")
	})
	if err != nil {
		return nil, err
	}

	session.Status = models.SessionCompletedAssumed
	session.SettledAt = &settledAt

	bookingID := session.BookingID
	events.Publish(events.Event{
		Type:       events.SessionCompleted,
		BookingID:  &bookingID,
		SessionID:  &session.ID,
		Recipients: settlementRecipients(db, session),
		Summary:    fmt.Sprintf("The session is complete; %.2f TTD will be charged.", session.ChargeAmountTTD),
	})

	publishBookingCompleted(db, session)
	go GenerateSettlementReceipt(db, session.ID)
	return session, nil
}

// SettleElapsedSessions is the supervisor sweep: any unsettled session
// whose scheduled end passed more than the grace period ago is settled
// as completed. The grace leaves the tutor room to claim a no-show
// after the session window.
func SettleElapsedSessions(db *gorm.DB) {
	log.Println("Running job: SettleElapsedSessions...")

	cutoff := time.Now().Add(-30 * time.Minute)
	var sessions []models.Session
	err := db.
		Where("settled_at IS NULL AND scheduled_end_at < ? AND status IN ?", cutoff,
			[]models.SessionStatus{models.SessionScheduled, models.SessionJoinOpen, models.SessionInProgress}).
		Find(&sessions).Error
	if err != nil {
		log.Printf("Error finding elapsed sessions: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	for i := range sessions {
		session := sessions[i]
		if _, err := CompleteSession(db, &session, uuid.Nil, models.ActorSystem); err != nil {
			log.Printf("Error settling session %s: %v", session.ID, err)
		}
	}
	log.Printf("Settled %d elapsed session(s).", len(sessions))
}

// completeBookingForSettlement moves the parent booking to COMPLETED
// and records what happened on the thread.
func completeBookingForSettlement(tx *gorm.DB, session *models.Session, note string) error {
	if err := transitionBooking(tx, session.BookingID, models.BookingConfirmed, map[string]interface{}{
		"status":         models.BookingCompleted,
		"last_action_by": models.ActorSystem,
	}); err != nil {
		return err
	}
	return appendSystemMessage(tx, session.BookingID, session.StudentID, note)
}

// publishBookingCompleted emits the booking-level event for the
// CONFIRMED -> COMPLETED transition that settlement drives.
func publishBookingCompleted(db *gorm.DB, session *models.Session) {
	var booking models.Booking
	if err := db.First(&booking, "id = ?", session.BookingID).Error; err != nil {
		log.Printf("Error loading booking %s for its completion event: %v", session.BookingID, err)
		return
	}
	publishBookingEvent(db, &booking, events.BookingCompleted,
		fmt.Sprintf("Booking %s is complete.", booking.Reference))
}

func settlementRecipients(db *gorm.DB, session *models.Session) []uuid.UUID {
	recipients := []uuid.UUID{session.StudentID, session.TutorID}
	parentIDs, err := LinkedParentIDs(db, session.StudentID)
	if err != nil {
		log.Printf("Error loading linked parents for session %s: %v", session.ID, err)
		return recipients
	}
	return append(recipients, parentIDs...)
}
