package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending               BookingStatus = "pending"
	BookingPendingParentApproval BookingStatus = "pending_parent_approval"
	BookingCounterProposed       BookingStatus = "counter_proposed"
	BookingConfirmed             BookingStatus = "confirmed"
	BookingDeclined              BookingStatus = "declined"
	BookingCancelled             BookingStatus = "cancelled"
	BookingCompleted             BookingStatus = "completed"
)

const (
	ActorStudent = "student"
	ActorTutor   = "tutor"
	ActorParent  = "parent"
	ActorSystem  = "system"
)

// bookingTransitions is the closed transition table. Anything not
// listed here is illegal and rejected before any write happens.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {
		BookingCounterProposed,
		BookingPendingParentApproval,
		BookingConfirmed,
		BookingDeclined,
		BookingCancelled,
	},
	BookingCounterProposed: {
		// Self-loop: the tutor may re-propose while an earlier
		// counter is still open.
		BookingCounterProposed,
		BookingConfirmed,
		BookingPendingParentApproval,
		BookingCancelled,
	},
	BookingPendingParentApproval: {
		BookingConfirmed,
		BookingCounterProposed,
		BookingDeclined,
		BookingCancelled,
	},
	BookingConfirmed: {
		BookingCompleted,
		BookingCancelled,
	},
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status is an archival end state.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking is the canonical negotiated-session record, whether it came
// from a student request or from an accepted Offer. Rows are never
// deleted; declined/cancelled/completed bookings are archives.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Reference string    `gorm:"size:12;unique;not null" json:"reference"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`
	TutorID   uuid.UUID `gorm:"not null;index" json:"tutor_id"`
	SubjectID uuid.UUID `gorm:"not null" json:"subject_id"`

	RequestedStartAt time.Time  `gorm:"not null" json:"requested_start_at"`
	RequestedEndAt   time.Time  `gorm:"not null" json:"requested_end_at"`
	ConfirmedStartAt *time.Time `json:"confirmed_start_at"`
	ConfirmedEndAt   *time.Time `json:"confirmed_end_at"`

	Status       BookingStatus `gorm:"size:30;not null;default:'pending'" json:"status"`
	PriceTTD     float64       `gorm:"type:numeric(10,2);not null" json:"price_ttd"`
	StudentNotes *string       `gorm:"type:text" json:"student_notes"`
	LastActionBy string        `gorm:"size:20;not null;default:'student'" json:"last_action_by"`

	// Parent approval audit trail; set only by the approval gate.
	ParentApprovedBy *uuid.UUID `json:"parent_approved_by"`
	ParentApprovedAt *time.Time `json:"parent_approved_at"`

	Student  User             `gorm:"foreignkey:StudentID" json:"-"`
	Tutor    User             `gorm:"foreignkey:TutorID" json:"-"`
	Subject  Subject          `gorm:"foreignkey:SubjectID" json:"-"`
	Messages []BookingMessage `json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
