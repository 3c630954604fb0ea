package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferCountered OfferStatus = "countered"
	OfferAccepted  OfferStatus = "accepted"
	OfferDeclined  OfferStatus = "declined"
)

// Terminal reports whether no further negotiation is possible.
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferDeclined
}

// Offer is a tutor-initiated session proposal. It supports at most one
// round of counter-proposal by the student; acceptance promotes it
// into a Booking and the offer itself is never touched again.
type Offer struct {
	ID              uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	TutorID         uuid.UUID   `gorm:"not null;index" json:"tutor_id"`
	StudentID       uuid.UUID   `gorm:"not null;index" json:"student_id"`
	SubjectID       uuid.UUID   `gorm:"not null" json:"subject_id"`
	ProposedStartAt time.Time   `gorm:"not null" json:"proposed_start_at"`
	DurationMinutes int         `gorm:"not null" json:"duration_minutes"`
	TutorNote       *string     `gorm:"type:text" json:"tutor_note"`
	Status          OfferStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	CounterProposedStartAt *time.Time `json:"counter_proposed_start_at"`
	CounterDurationMinutes *int       `json:"counter_duration_minutes"`
	CounterNote            *string    `gorm:"type:text" json:"counter_note"`

	// BookingID is set exactly once, when the offer is accepted.
	BookingID *uuid.UUID `gorm:"unique" json:"booking_id"`

	Tutor   User    `gorm:"foreignkey:TutorID" json:"-"`
	Student User    `gorm:"foreignkey:StudentID" json:"-"`
	Subject Subject `gorm:"foreignkey:SubjectID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// AgreedStartAt returns the counter time when a counter round
// happened, else the tutor's original proposal.
func (o *Offer) AgreedStartAt() time.Time {
	if o.CounterProposedStartAt != nil {
		return *o.CounterProposedStartAt
	}
	return o.ProposedStartAt
}

// AgreedDurationMinutes mirrors AgreedStartAt for the duration.
func (o *Offer) AgreedDurationMinutes() int {
	if o.CounterDurationMinutes != nil {
		return *o.CounterDurationMinutes
	}
	return o.DurationMinutes
}
