package services

import (
	"fmt"
	"log"
	"time"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minSessionMinutes = 30
	maxSessionMinutes = 300
)

func validateTimeWindow(startAt time.Time, durationMinutes int) error {
	if startAt.Before(time.Now()) {
		return &InvalidTimeWindowError{Reason: "start time is in the past"}
	}
	if durationMinutes < minSessionMinutes || durationMinutes > maxSessionMinutes {
		return &InvalidTimeWindowError{
			Reason: fmt.Sprintf("duration must be between %d and %d minutes", minSessionMinutes, maxSessionMinutes),
		}
	}
	return nil
}

// transitionBooking applies a conditional update keyed on the status
// snapshot the caller acted against. Zero rows affected means another
// party committed first; the caller gets StaleState, never a silent
// overwrite.
func transitionBooking(tx *gorm.DB, bookingID uuid.UUID, from models.BookingStatus, updates map[string]interface{}) error {
	if next, ok := updates["status"].(models.BookingStatus); ok && !from.CanTransitionTo(next) {
		return &InvalidStateError{
			Entity: "booking",
			Status: string(from),
			Hint:   fmt.Sprintf("a booking cannot move from %s to %s", from, next),
		}
	}

	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &StaleStateError{Entity: "booking", ExpectedStatus: string(from)}
	}
	return nil
}

func appendSystemMessage(tx *gorm.DB, bookingID, senderID uuid.UUID, body string) error {
	msg := models.BookingMessage{
		BookingID:   bookingID,
		SenderID:    senderID,
		MessageType: models.MessageSystem,
		Body:        body,
	}
	return tx.Create(&msg).Error
}

// bookingRecipients is everyone a booking event concerns: both
// parties plus any parents linked to the student.
func bookingRecipients(db *gorm.DB, booking *models.Booking) []uuid.UUID {
	recipients := []uuid.UUID{booking.StudentID, booking.TutorID}
	parentIDs, err := LinkedParentIDs(db, booking.StudentID)
	if err != nil {
		log.Printf("Error loading linked parents for booking %s: %v", booking.ID, err)
		return recipients
	}
	return append(recipients, parentIDs...)
}

func publishBookingEvent(db *gorm.DB, booking *models.Booking, eventType, summary string) {
	id := booking.ID
	events.Publish(events.Event{
		Type:       eventType,
		BookingID:  &id,
		Recipients: bookingRecipients(db, booking),
		Summary:    summary,
	})
}

// RequestBooking creates a PENDING booking from a student's request.
// The price is fixed now, from the subject's hourly rate and the
// requested duration, so later negotiation moves the time, not the fee.
func RequestBooking(db *gorm.DB, studentID, tutorID, subjectID uuid.UUID, startAt, endAt time.Time, notes *string) (*models.Booking, error) {
	durationMinutes := int(endAt.Sub(startAt).Minutes())
	if err := validateTimeWindow(startAt, durationMinutes); err != nil {
		return nil, err
	}

	var subject models.Subject
	if err := db.First(&subject, "id = ?", subjectID).Error; err != nil {
		return nil, err
	}

	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		reference, err := utils.GenerateUniqueBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:        reference,
			StudentID:        studentID,
			TutorID:          tutorID,
			SubjectID:        subjectID,
			RequestedStartAt: startAt,
			RequestedEndAt:   endAt,
			Status:           models.BookingPending,
			PriceTTD:         RoundTTD(subject.HourlyRateTTD * float64(durationMinutes) / 60),
			StudentNotes:     notes,
			LastActionBy:     models.ActorStudent,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return appendSystemMessage(tx, booking.ID, studentID, "Booking requested by the student.")
	})
	if err != nil {
		return nil, err
	}

	publishBookingEvent(db, &booking, events.BookingRequested,
		fmt.Sprintf("New booking request %s, awaiting the tutor's response.", booking.Reference))
	return &booking, nil
}

// TutorAcceptBooking confirms a pending request, or parks it at the
// parent approval gate when the student's billing is parent-managed.
func TutorAcceptBooking(db *gorm.DB, booking *models.Booking, tutorID uuid.UUID) (*models.Booking, error) {
	if booking.TutorID != tutorID {
		return nil, &UnauthorizedError{Action: "accept booking", Hint: "only this booking's tutor may accept it"}
	}
	if booking.Status != models.BookingPending {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "only a pending booking can be accepted by the tutor",
		}
	}

	return routeToConfirmation(db, booking, booking.RequestedStartAt, booking.RequestedEndAt, models.ActorTutor, nil)
}

// TutorDeclineBooking declines a pending request. Terminal.
func TutorDeclineBooking(db *gorm.DB, booking *models.Booking, tutorID uuid.UUID, reason string) (*models.Booking, error) {
	if booking.TutorID != tutorID {
		return nil, &UnauthorizedError{Action: "decline booking", Hint: "only this booking's tutor may decline it"}
	}
	if booking.Status != models.BookingPending {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "only a pending booking can be declined by the tutor",
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := transitionBooking(tx, booking.ID, models.BookingPending, map[string]interface{}{
			"status":         models.BookingDeclined,
			"last_action_by": models.ActorTutor,
		}); err != nil {
			return err
		}
		return appendSystemMessage(tx, booking.ID, tutorID, "Booking declined by the tutor: "+reason)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = models.BookingDeclined
	booking.LastActionBy = models.ActorTutor
	publishBookingEvent(db, booking, events.BookingDeclined,
		fmt.Sprintf("Booking %s was declined by the tutor.", booking.Reference))
	return booking, nil
}

// TutorCounterPropose records a time_proposal message and moves the
// booking to COUNTER_PROPOSED. Bookings allow unbounded re-proposal:
// a tutor can counter again while an earlier counter is still open.
func TutorCounterPropose(db *gorm.DB, booking *models.Booking, tutorID uuid.UUID, newStart, newEnd time.Time, note string) (*models.BookingMessage, error) {
	if booking.TutorID != tutorID {
		return nil, &UnauthorizedError{Action: "counter-propose", Hint: "only this booking's tutor may counter-propose"}
	}
	if booking.Status != models.BookingPending && booking.Status != models.BookingCounterProposed {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "the tutor may counter-propose only while the booking is pending or already under counter-proposal",
		}
	}
	if err := validateTimeWindow(newStart, int(newEnd.Sub(newStart).Minutes())); err != nil {
		return nil, err
	}

	var msg models.BookingMessage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := transitionBooking(tx, booking.ID, booking.Status, map[string]interface{}{
			"status":         models.BookingCounterProposed,
			"last_action_by": models.ActorTutor,
		}); err != nil {
			return err
		}

		msg = models.BookingMessage{
			BookingID:       booking.ID,
			SenderID:        tutorID,
			MessageType:     models.MessageTimeProposal,
			Body:            note,
			ProposedStartAt: &newStart,
			ProposedEndAt:   &newEnd,
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}

	booking.Status = models.BookingCounterProposed
	publishBookingEvent(db, booking, events.BookingCounterProposed,
		fmt.Sprintf("The tutor proposed a new time for booking %s.", booking.Reference))
	return &msg, nil
}

// StudentAcceptCounter accepts the time in the referenced
// time_proposal message and confirms the booking (or parks it at the
// parent approval gate for managed students).
func StudentAcceptCounter(db *gorm.DB, booking *models.Booking, studentID, messageID uuid.UUID) (*models.Booking, error) {
	if booking.StudentID != studentID {
		return nil, &UnauthorizedError{Action: "accept counter-proposal", Hint: "only this booking's student may accept a counter-proposal"}
	}
	if booking.Status != models.BookingCounterProposed {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "a counter-proposal can be accepted only while the booking is counter_proposed",
		}
	}

	var msg models.BookingMessage
	if err := db.First(&msg, "id = ? AND booking_id = ?", messageID, booking.ID).Error; err != nil {
		return nil, err
	}
	if msg.MessageType != models.MessageTimeProposal || msg.ProposedStartAt == nil || msg.ProposedEndAt == nil {
		return nil, &InvalidStateError{
			Entity: "booking message",
			Status: msg.MessageType,
			Hint:   "the referenced message is not a time proposal",
		}
	}

	return routeToConfirmation(db, booking, *msg.ProposedStartAt, *msg.ProposedEndAt, models.ActorStudent, nil)
}

// CancelBooking cancels from any non-terminal state, cascading to the
// session when one was already materialized. Cancellation follows the
// same optimistic-concurrency rule as every other transition: it can
// lose the race to a concurrent confirmation.
func CancelBooking(db *gorm.DB, booking *models.Booking, actorID uuid.UUID, actorRole, reason string) (*models.Booking, error) {
	if actorID != booking.StudentID && actorID != booking.TutorID {
		linked, err := IsLinkedParent(db, actorID, booking.StudentID)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, &UnauthorizedError{Action: "cancel booking", Hint: "only the student, the tutor, or a linked parent may cancel"}
		}
	}
	if booking.Status.Terminal() {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "a booking in a terminal state cannot be cancelled",
		}
	}

	var cancelledSession *models.Session
	err := db.Transaction(func(tx *gorm.DB) error {
		// A cancelled booking holds no confirmed window; the session
		// row keeps the scheduled times for history.
		if err := transitionBooking(tx, booking.ID, booking.Status, map[string]interface{}{
			"status":             models.BookingCancelled,
			"confirmed_start_at": nil,
			"confirmed_end_at":   nil,
			"last_action_by":     actorRole,
		}); err != nil {
			return err
		}
		if err := appendSystemMessage(tx, booking.ID, actorID, "Booking cancelled: "+reason); err != nil {
			return err
		}

		var session models.Session
		err := tx.First(&session, "booking_id = ?", booking.ID).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if session.Settled() {
			return &AlreadySettledError{SessionID: session.ID.String()}
		}

		// A cancelled session's settlement decision is "no charge".
		now := time.Now()
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"status":            models.SessionCancelled,
			"charge_amount_ttd": 0.0,
			"platform_fee_ttd":  0.0,
			"tutor_payout_ttd":  0.0,
			"settled_at":        now,
		}).Error; err != nil {
			return err
		}
		cancelledSession = &session
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = models.BookingCancelled
	booking.ConfirmedStartAt = nil
	booking.ConfirmedEndAt = nil
	booking.LastActionBy = actorRole
	publishBookingEvent(db, booking, events.BookingCancelled,
		fmt.Sprintf("Booking %s was cancelled (%s).", booking.Reference, reason))
	if cancelledSession != nil {
		sessionID := cancelledSession.ID
		bookingID := booking.ID
		events.Publish(events.Event{
			Type:       events.SessionCancelled,
			BookingID:  &bookingID,
			SessionID:  &sessionID,
			Recipients: bookingRecipients(db, booking),
			Summary:    fmt.Sprintf("The session for booking %s was cancelled; no charge applies.", booking.Reference),
		})
	}
	return booking, nil
}

// AddBookingMessage appends a plain-text entry to the booking thread.
// Any party to the booking (including a linked parent) may post.
func AddBookingMessage(db *gorm.DB, booking *models.Booking, senderID uuid.UUID, body string) (*models.BookingMessage, error) {
	if senderID != booking.StudentID && senderID != booking.TutorID {
		linked, err := IsLinkedParent(db, senderID, booking.StudentID)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, &UnauthorizedError{Action: "post to thread", Hint: "only the booking's parties may post to its thread"}
		}
	}

	msg := models.BookingMessage{
		BookingID:   booking.ID,
		SenderID:    senderID,
		MessageType: models.MessageText,
		Body:        body,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// routeToConfirmation is the single path into CONFIRMED. It applies
// the parent approval gate: when the student's billing is
// parent-managed and the acting party is not a parent, the booking is
// parked in PENDING_PARENT_APPROVAL instead and the agreed window is
// carried on the requested_* fields for the parent to act on.
func routeToConfirmation(db *gorm.DB, booking *models.Booking, startAt, endAt time.Time, actorRole string, approvingParent *uuid.UUID) (*models.Booking, error) {
	from := booking.Status

	if actorRole != models.ActorParent {
		managed, err := IsManagedStudent(db, booking.StudentID)
		if err != nil {
			return nil, err
		}
		if managed {
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := transitionBooking(tx, booking.ID, from, map[string]interface{}{
					"status":             models.BookingPendingParentApproval,
					"requested_start_at": startAt,
					"requested_end_at":   endAt,
					"last_action_by":     actorRole,
				}); err != nil {
					return err
				}
				return appendSystemMessage(tx, booking.ID, booking.StudentID,
					"Awaiting parent approval before this booking can be confirmed.")
			})
			if err != nil {
				return nil, err
			}

			booking.Status = models.BookingPendingParentApproval
			booking.RequestedStartAt = startAt
			booking.RequestedEndAt = endAt
			booking.LastActionBy = actorRole
			publishBookingEvent(db, booking, events.BookingAwaitingParent,
				fmt.Sprintf("Booking %s needs a parent's approval.", booking.Reference))
			return booking, nil
		}
	}

	var session *models.Session
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":             models.BookingConfirmed,
			"confirmed_start_at": startAt,
			"confirmed_end_at":   endAt,
			"last_action_by":     actorRole,
		}
		if approvingParent != nil {
			updates["parent_approved_by"] = *approvingParent
			updates["parent_approved_at"] = now
		}
		if err := transitionBooking(tx, booking.ID, from, updates); err != nil {
			return err
		}
		if err := appendSystemMessage(tx, booking.ID, booking.StudentID, "Booking confirmed."); err != nil {
			return err
		}

		booking.Status = models.BookingConfirmed
		booking.ConfirmedStartAt = &startAt
		booking.ConfirmedEndAt = &endAt
		booking.LastActionBy = actorRole
		if approvingParent != nil {
			booking.ParentApprovedBy = approvingParent
			booking.ParentApprovedAt = &now
		}

		var err error
		session, err = MaterializeSession(tx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishBookingEvent(db, booking, events.BookingConfirmed,
		fmt.Sprintf("Booking %s is confirmed for %s.", booking.Reference, startAt.Format(time.RFC1123)))
	sessionID := session.ID
	bookingID := booking.ID
	events.Publish(events.Event{
		Type:       events.SessionScheduled,
		BookingID:  &bookingID,
		SessionID:  &sessionID,
		Recipients: bookingRecipients(db, booking),
		Summary:    fmt.Sprintf("A session was scheduled for booking %s.", booking.Reference),
	})

	// Meeting-link provisioning happens after the confirmation has
	// committed; a slow or failed provider call never blocks or rolls
	// back the transition.
	go ProvisionMeetingLink(db, session.ID)

	return booking, nil
}
