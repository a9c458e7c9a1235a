package payment

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Statuses mirror the processor's payment-intent vocabulary.
const (
	StatusSucceeded             = "succeeded"
	StatusFailed                = "failed"
	StatusCanceled              = "canceled"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresCapture       = "requires_capture"
)

// Payment is one attempt in a booking's ledger. Rows are append-only: a retry
// records a brand-new row referencing the prior attempt in its description and
// never mutates the failed one.
type Payment struct {
	gorm.Model
	BookingID             uint       `json:"bookingId"`
	CleanerID             *uint      `json:"cleanerId"`
	Amount                float64    `json:"amount"`
	Status                string     `json:"status"`
	IsCaptured            bool       `json:"isCaptured"`
	StripePaymentIntentID string     `json:"stripePaymentIntentId"`
	StripePaymentMethodID string     `json:"stripePaymentMethodId"`
	AttemptKey            string     `json:"attemptKey"`
	Description           string     `json:"description"`
	PaidAt                *time.Time `json:"paidAt"`
}

// retryable statuses: a retry is only legal from a known-failed state.
func retryable(status string) bool {
	switch status {
	case StatusCanceled, StatusFailed, StatusRequiresPaymentMethod:
		return true
	}
	return false
}

// ToCents converts a currency amount in major units to the processor's
// integer minor units.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// NetTotal is the amount actually collected for a booking: the sum over rows
// that are both captured and succeeded. Authorization holds and failed
// attempts are excluded.
func NetTotal(db *gorm.DB, bookingID uint) (float64, error) {
	var total float64
	err := db.Model(&Payment{}).
		Where("booking_id = ? AND is_captured = ? AND status = ?", bookingID, true, StatusSucceeded).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
