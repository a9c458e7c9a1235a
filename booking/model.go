package booking

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	gorm.Model
	ClientID       uint      `json:"clientId" validate:"required"`
	CleanerID      *uint     `json:"cleanerId"`
	ScheduledDate  time.Time `json:"scheduledDate" validate:"required"`
	ScheduledTime  string    `json:"scheduledTime"`
	DurationHours  float64   `json:"durationHours"`
	ServiceType    string    `json:"serviceType" validate:"required"`
	FinalPrice     *float64  `json:"finalPrice"`
	Status         Status    `json:"status" gorm:"default:PENDING"`
	PaymentMethod  string    `json:"paymentMethod"`
	PaymentDetails string    `json:"paymentDetails"`

	// Computed view, never written back.
	EffectiveStatus Status `json:"effectiveStatus" gorm:"-"`
}

// EffectiveStatus derives the displayed lifecycle state: a booking whose
// scheduled date has passed reads as COMPLETED unless it was cancelled.
func EffectiveStatus(stored Status, scheduledDate, now time.Time) Status {
	if scheduledDate.Before(now) && stored != StatusCancelled {
		return StatusCompleted
	}
	return stored
}

// Derive fills the computed status field. Every read path calls this before a
// booking leaves the API.
func (b *Booking) Derive(now time.Time) {
	b.EffectiveStatus = EffectiveStatus(b.Status, b.ScheduledDate, now)
}

// FeeApplies decides whether cancelling now incurs the configured fee: the
// fee is due when less than windowHours remain before the scheduled date.
func FeeApplies(scheduledDate, now time.Time, windowHours float64) bool {
	return scheduledDate.Sub(now) < time.Duration(windowHours*float64(time.Hour))
}
