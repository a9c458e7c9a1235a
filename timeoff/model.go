package timeoff

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDenied   = "DENIED"
)

type TimeOffRequest struct {
	gorm.Model
	CleanerID  uint      `json:"cleanerId"`
	StartDate  time.Time `json:"startDate" validate:"required"`
	EndDate    time.Time `json:"endDate" validate:"required"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status" gorm:"default:PENDING"`
	ReviewedBy *uint     `json:"reviewedBy"`
	ReviewNote string    `json:"reviewNote"`
}
