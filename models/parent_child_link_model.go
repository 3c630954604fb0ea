package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParentChildLink associates a parent account with a managed student
// account. DisplayColor is used only for dashboard grouping; it plays
// no part in the booking lifecycle. ManagedBilling is what routes a
// student's bookings through the parent approval gate.
type ParentChildLink struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ParentID       uuid.UUID `gorm:"not null;index" json:"parent_id"`
	StudentID      uuid.UUID `gorm:"not null;index" json:"student_id"`
	DisplayColor   string    `gorm:"size:7;default:'#4F46E5'" json:"display_color"`
	ManagedBilling bool      `gorm:"default:true" json:"managed_billing"`

	Parent  User `gorm:"foreignkey:ParentID" json:"-"`
	Student User `gorm:"foreignkey:StudentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *ParentChildLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
