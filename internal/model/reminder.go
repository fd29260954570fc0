package model

import (
	"time"

	"github.com/google/uuid"
)

// Reminder status enum constants
const (
	ReminderActive    = "active"
	ReminderSent      = "sent"
	ReminderDismissed = "dismissed"
)

// Reminder delivery type enum constants
const (
	ReminderTypeManual = "manual"
	ReminderTypeEmail  = "email"
)

// Reminder is a scheduled or sent payment notice, optionally linked to a
// tax record.
type Reminder struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxID        *uuid.UUID `gorm:"type:uuid;index" json:"tax_id"`
	Tax          *Tax       `gorm:"foreignKey:TaxID" json:"tax,omitempty"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Message      string     `gorm:"type:text" json:"message"`
	ReminderDate time.Time  `gorm:"not null;index" json:"reminder_date"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // active, sent, dismissed
	Type         string     `gorm:"type:varchar(20);not null;default:'manual'" json:"type"`         // manual, email
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
