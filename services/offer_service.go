package services

import (
	"fmt"
	"time"

	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transitionOffer mirrors transitionBooking for the offers table.
func transitionOffer(tx *gorm.DB, offerID uuid.UUID, from models.OfferStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.Offer{}).
		Where("id = ? AND status = ?", offerID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &StaleStateError{Entity: "offer", ExpectedStatus: string(from)}
	}
	return nil
}

func publishOfferEvent(offer *models.Offer, eventType, summary string) {
	id := offer.ID
	events.Publish(events.Event{
		Type:       eventType,
		OfferID:    &id,
		Recipients: []uuid.UUID{offer.StudentID, offer.TutorID},
		Summary:    summary,
	})
}

// ProposeOffer creates a PENDING lesson offer from a tutor to a
// student.
func ProposeOffer(db *gorm.DB, tutorID, studentID, subjectID uuid.UUID, startAt time.Time, durationMinutes int, note *string) (*models.Offer, error) {
	if err := validateTimeWindow(startAt, durationMinutes); err != nil {
		return nil, err
	}

	offer := models.Offer{
		TutorID:         tutorID,
		StudentID:       studentID,
		SubjectID:       subjectID,
		ProposedStartAt: startAt,
		DurationMinutes: durationMinutes,
		TutorNote:       note,
		Status:          models.OfferPending,
	}
	if err := db.Create(&offer).Error; err != nil {
		return nil, err
	}

	publishOfferEvent(&offer, events.OfferProposed, "A tutor sent you a new lesson offer.")
	return &offer, nil
}

// CounterOffer records the student's one counter round. Offers allow
// exactly one counter; there is no re-counter, only acceptance or
// decline of the countered time.
func CounterOffer(db *gorm.DB, offer *models.Offer, studentID uuid.UUID, newStart time.Time, newDuration int, note *string) (*models.Offer, error) {
	if offer.StudentID != studentID {
		return nil, &UnauthorizedError{Action: "counter offer", Hint: "only the offered student may counter-propose"}
	}
	if offer.Status != models.OfferPending {
		return nil, &InvalidStateError{
			Entity: "offer",
			Status: string(offer.Status),
			Hint:   "an offer can be countered only once, while it is still pending",
		}
	}
	if err := validateTimeWindow(newStart, newDuration); err != nil {
		return nil, err
	}

	if err := transitionOffer(db, offer.ID, models.OfferPending, map[string]interface{}{
		"status":                    models.OfferCountered,
		"counter_proposed_start_at": newStart,
		"counter_duration_minutes":  newDuration,
		"counter_note":              note,
	}); err != nil {
		return nil, err
	}

	offer.Status = models.OfferCountered
	offer.CounterProposedStartAt = &newStart
	offer.CounterDurationMinutes = &newDuration
	offer.CounterNote = note
	publishOfferEvent(offer, events.OfferCountered, "The student proposed a different time for your lesson offer.")
	return offer, nil
}

// AcceptOffer accepts an offer (using the counter time when one was
// proposed) and promotes it into a booking. The offer layer already
// carried the negotiation, so the booking skips PENDING: it goes
// straight to CONFIRMED, or to the parent approval gate for a managed
// student.
func AcceptOffer(db *gorm.DB, offer *models.Offer, studentID uuid.UUID) (*models.Booking, error) {
	if offer.StudentID != studentID {
		return nil, &UnauthorizedError{Action: "accept offer", Hint: "only the offered student may accept"}
	}
	if offer.Status != models.OfferPending && offer.Status != models.OfferCountered {
		return nil, &InvalidStateError{
			Entity: "offer",
			Status: string(offer.Status),
			Hint:   "only a pending or countered offer can be accepted",
		}
	}

	var subject models.Subject
	if err := db.First(&subject, "id = ?", offer.SubjectID).Error; err != nil {
		return nil, err
	}

	startAt := offer.AgreedStartAt()
	durationMinutes := offer.AgreedDurationMinutes()
	endAt := startAt.Add(time.Duration(durationMinutes) * time.Minute)

	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		reference, err := utils.GenerateUniqueBookingReference(tx)
		if err != nil {
			return err
		}

		booking = models.Booking{
			Reference:        reference,
			StudentID:        offer.StudentID,
			TutorID:          offer.TutorID,
			SubjectID:        offer.SubjectID,
			RequestedStartAt: startAt,
			RequestedEndAt:   endAt,
			Status:           models.BookingPending,
			PriceTTD:         RoundTTD(subject.HourlyRateTTD * float64(durationMinutes) / 60),
			LastActionBy:     models.ActorStudent,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		if err := appendSystemMessage(tx, booking.ID, offer.StudentID, "Booking created from an accepted lesson offer."); err != nil {
			return err
		}

		return transitionOffer(tx, offer.ID, offer.Status, map[string]interface{}{
			"status":     models.OfferAccepted,
			"booking_id": booking.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	offer.Status = models.OfferAccepted
	bookingID := booking.ID
	offer.BookingID = &bookingID
	publishOfferEvent(offer, events.OfferAccepted,
		fmt.Sprintf("Your lesson offer was accepted; booking %s was created.", booking.Reference))

	return routeToConfirmation(db, &booking, startAt, endAt, models.ActorStudent, nil)
}

// DeclineOffer declines from any non-terminal state. Declining an
// already-declined offer is a no-op, not an error.
func DeclineOffer(db *gorm.DB, offer *models.Offer, actorID uuid.UUID) (*models.Offer, error) {
	if actorID != offer.StudentID && actorID != offer.TutorID {
		return nil, &UnauthorizedError{Action: "decline offer", Hint: "only the offer's tutor or student may decline it"}
	}
	if offer.Status == models.OfferDeclined {
		return offer, nil
	}
	if offer.Status == models.OfferAccepted {
		return nil, &InvalidStateError{
			Entity: "offer",
			Status: string(offer.Status),
			Hint:   "an accepted offer can no longer be declined; cancel the booking instead",
		}
	}

	if err := transitionOffer(db, offer.ID, offer.Status, map[string]interface{}{
		"status": models.OfferDeclined,
	}); err != nil {
		return nil, err
	}

	offer.Status = models.OfferDeclined
	publishOfferEvent(offer, events.OfferDeclined, "The lesson offer was declined.")
	return offer, nil
}
