package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Flag names a persisted delivery flag column on bookings.
type Flag string

const (
	FlagReminder Flag = "reminder_sent"
	FlagFeedback Flag = "feedback_sent"
)

func (f Flag) Valid() bool {
	return f == FlagReminder || f == FlagFeedback
}

type Booking struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string        `gorm:"size:255;not null" json:"name"`
	Phone        string        `gorm:"size:32;not null" json:"phone"`
	Email        string        `gorm:"size:255" json:"email"`
	Date         string        `gorm:"size:10;not null;index" json:"date"`
	Slot         string        `gorm:"size:5;not null" json:"slot"`
	ReminderSent bool          `gorm:"not null;default:false;index" json:"reminder_sent"`
	FeedbackSent bool          `gorm:"not null;default:false;index" json:"feedback_sent"`
	Status       BookingStatus `gorm:"size:20;not null;default:'scheduled'" json:"status"`
	Notes        *string       `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusScheduled
	}
	return nil
}

// AppointmentAt combines Date and Slot into one instant in loc.
func (b Booking) AppointmentAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(DateLayout+" "+SlotLayout, b.Date+" "+b.Slot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking %s: parse appointment %q %q: %w", b.ID, b.Date, b.Slot, err)
	}
	return at, nil
}

func (b Booking) FlagValue(f Flag) bool {
	switch f {
	case FlagReminder:
		return b.ReminderSent
	case FlagFeedback:
		return b.FeedbackSent
	}
	return false
}
