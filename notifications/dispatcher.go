package notifications

import (
	"fmt"
	"log"
	"strings"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/events"
	"github.com/classroomtt/tutor_marketplace/models"
)

// RegisterDispatcher wires the email channel to the domain event bus.
// The core emits exactly one event per successful transition; turning
// that into emails (and retrying them) is this dispatcher's problem,
// not the state machine's.
func RegisterDispatcher() {
	events.Subscribe(dispatch)
	log.Println("✅ Notification dispatcher registered on the event bus.")
}

func dispatch(e events.Event) {
	if len(e.Recipients) == 0 {
		return
	}

	var recipients []models.User
	if err := database.DB.Where("id IN ?", e.Recipients).Find(&recipients).Error; err != nil {
		log.Printf("Error loading notification recipients for %s: %v", e.Type, err)
		return
	}

	subject := subjectFor(e.Type)
	body := fmt.Sprintf("<h1>%s</h1><p>%s</p>", subject, e.Summary)
	for _, user := range recipients {
		go SendEmail(user.FullName, user.Email, subject, body)
	}
}

func subjectFor(eventType string) string {
	switch eventType {
	case events.BookingConfirmed:
		return "Your Booking is Confirmed!"
	case events.BookingAwaitingParent:
		return "A Booking Needs Your Approval"
	case events.SessionLinkReady:
		return "Your Meeting Link is Ready"
	case events.SessionNoShow:
		return "Session Marked as a No-show"
	case events.OfferProposed:
		return "You Have a New Lesson Offer!"
	default:
		// e.g. "booking.cancelled" -> "Booking cancelled"
		humanized := strings.ReplaceAll(eventType, ".", " ")
		humanized = strings.ReplaceAll(humanized, "_", " ")
		return strings.ToUpper(humanized[:1]) + humanized[1:]
	}
}
