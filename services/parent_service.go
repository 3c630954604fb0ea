package services

import (
	"fmt"
	"time"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Parent approval gate. Applies only to bookings for students linked
// through ParentChildLink with managed billing; exactly one parent
// action can succeed per booking; a second concurrent parent loses
// the conditional update and gets StaleState.

func requireLinkedParent(db *gorm.DB, booking *models.Booking, parentID uuid.UUID, action string) error {
	linked, err := IsLinkedParent(db, parentID, booking.StudentID)
	if err != nil {
		return err
	}
	if !linked {
		return &UnauthorizedError{Action: action, Hint: "only a parent linked to this student may act on the booking"}
	}
	return nil
}

func requireAwaitingParent(booking *models.Booking, action string) error {
	if booking.Status != models.BookingPendingParentApproval {
		return &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   fmt.Sprintf("a parent may %s only while the booking is pending_parent_approval", action),
		}
	}
	return nil
}

// ParentApprove confirms a gated booking. The caller is expected to
// drive the payment checkout step afterwards; that is outside this
// core.
func ParentApprove(db *gorm.DB, booking *models.Booking, parentID uuid.UUID, parentNotes string) (*models.Booking, error) {
	if err := requireLinkedParent(db, booking, parentID, "approve booking"); err != nil {
		return nil, err
	}
	if err := requireAwaitingParent(booking, "approve"); err != nil {
		return nil, err
	}

	confirmed, err := routeToConfirmation(db, booking, booking.RequestedStartAt, booking.RequestedEndAt, models.ActorParent, &parentID)
	if err != nil {
		return nil, err
	}

	note := "Parent approved the booking."
	if parentNotes != "" {
		note = "Parent approved the booking: " + parentNotes
	}
	if err := appendSystemMessage(db, booking.ID, parentID, note); err != nil {
		return nil, err
	}
	return confirmed, nil
}

// ParentReject declines a gated booking. The reason is mandatory and
// recorded on the thread.
func ParentReject(db *gorm.DB, booking *models.Booking, parentID uuid.UUID, reason string) (*models.Booking, error) {
	if err := requireLinkedParent(db, booking, parentID, "reject booking"); err != nil {
		return nil, err
	}
	if err := requireAwaitingParent(booking, "reject"); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, &InvalidStateError{
			Entity: "booking",
			Status: string(booking.Status),
			Hint:   "the parent must give a rejection reason",
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := transitionBooking(tx, booking.ID, models.BookingPendingParentApproval, map[string]interface{}{
			"status":         models.BookingDeclined,
			"last_action_by": models.ActorParent,
		}); err != nil {
			return err
		}
		return appendSystemMessage(tx, booking.ID, parentID, "Parent declined the booking: "+reason)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = models.BookingDeclined
	booking.LastActionBy = models.ActorParent
	publishBookingEvent(db, booking, events.BookingDeclined,
		fmt.Sprintf("Booking %s was declined by a parent.", booking.Reference))
	return booking, nil
}

// ParentSuggestAlternateTime behaves like a tutor counter-proposal:
// it records a time_proposal message, moves the booking back to
// COUNTER_PROPOSED, and hands control to the tutor/student
// negotiation.
func ParentSuggestAlternateTime(db *gorm.DB, booking *models.Booking, parentID uuid.UUID, newStart, newEnd time.Time, note string) (*models.BookingMessage, error) {
	if err := requireLinkedParent(db, booking, parentID, "suggest alternate time"); err != nil {
		return nil, err
	}
	if err := requireAwaitingParent(booking, "suggest an alternate time"); err != nil {
		return nil, err
	}
	if err := validateTimeWindow(newStart, int(newEnd.Sub(newStart).Minutes())); err != nil {
		return nil, err
	}

	var msg models.BookingMessage
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := transitionBooking(tx, booking.ID, models.BookingPendingParentApproval, map[string]interface{}{
			"status":         models.BookingCounterProposed,
			"last_action_by": models.ActorParent,
		}); err != nil {
			return err
		}

		msg = models.BookingMessage{
			BookingID:       booking.ID,
			SenderID:        parentID,
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
	booking.LastActionBy = models.ActorParent
	publishBookingEvent(db, booking, events.BookingCounterProposed,
		fmt.Sprintf("A parent suggested a different time for booking %s.", booking.Reference))
	return &msg, nil
}
