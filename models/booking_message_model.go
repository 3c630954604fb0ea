package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageText         = "text"
	MessageSystem       = "system"
	MessageTimeProposal = "time_proposal"
)

// BookingMessage is an append-only thread entry tied to one booking.
// Entries are immutable once created; insertion order is the only
// ordering key.
type BookingMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID   uuid.UUID `gorm:"not null;index" json:"booking_id"`
	SenderID    uuid.UUID `gorm:"not null" json:"sender_id"`
	MessageType string    `gorm:"size:20;not null;default:'text'" json:"message_type"`
	Body        string    `gorm:"type:text" json:"body"`

	// Set only when MessageType is time_proposal.
	ProposedStartAt *time.Time `json:"proposed_start_at"`
	ProposedEndAt   *time.Time `json:"proposed_end_at"`

	Sender User `gorm:"foreignkey:SenderID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *BookingMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
