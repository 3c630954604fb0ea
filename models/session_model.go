package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionScheduled        SessionStatus = "scheduled"
	SessionJoinOpen         SessionStatus = "join_open"
	SessionInProgress       SessionStatus = "in_progress"
	SessionCompletedAssumed SessionStatus = "completed_assumed"
	SessionStudentNoShow    SessionStatus = "student_no_show"
	SessionCancelled        SessionStatus = "cancelled"
)

// Meeting-link provisioning state. Never surfaced as a hard error to
// the confirming transition; a failed link is a degraded session
// flagged for retry, not a failed booking.
const (
	ProvisioningPending = "pending"
	ProvisioningReady   = "ready"
	ProvisioningFailed  = "failed"
)

// Session is the joinable occurrence of a confirmed booking, created
// exactly once per booking. SettledAt is the single settlement latch:
// once set, no further charge decision may be recorded.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"not null;unique" json:"booking_id"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`
	TutorID   uuid.UUID `gorm:"not null;index" json:"tutor_id"`

	ScheduledStartAt time.Time     `gorm:"not null" json:"scheduled_start_at"`
	ScheduledEndAt   time.Time     `gorm:"not null" json:"scheduled_end_at"`
	DurationMinutes  int           `gorm:"not null" json:"duration_minutes"`
	Status           SessionStatus `gorm:"size:30;not null;default:'scheduled'" json:"status"`

	JoinURL            *string `gorm:"size:255" json:"join_url"`
	Provider           *string `gorm:"size:50" json:"provider"`
	ProvisioningStatus string  `gorm:"size:20;not null;default:'pending'" json:"provisioning_status"`

	ChargeAmountTTD float64 `gorm:"type:numeric(10,2);not null" json:"charge_amount_ttd"`
	PlatformFeeTTD  float64 `gorm:"type:numeric(10,2);not null" json:"platform_fee_ttd"`
	TutorPayoutTTD  float64 `gorm:"type:numeric(10,2);not null" json:"tutor_payout_ttd"`

	StudentJoinedAt *time.Time `json:"student_joined_at"`
	TutorJoinedAt   *time.Time `json:"tutor_joined_at"`
	SettledAt       *time.Time `json:"settled_at"`
	ReceiptURL      *string    `gorm:"size:255" json:"receipt_url"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`
	Student User    `gorm:"foreignkey:StudentID" json:"-"`
	Tutor   User    `gorm:"foreignkey:TutorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// JoinDeadline is the moment after which the student counts as a
// no-show: scheduled start plus a third of the session duration.
func (s *Session) JoinDeadline() time.Time {
	grace := time.Duration(float64(s.DurationMinutes) * 0.33 * float64(time.Minute))
	return s.ScheduledStartAt.Add(grace)
}

// Settled reports whether a final charge decision exists.
func (s *Session) Settled() bool {
	return s.SettledAt != nil
}
