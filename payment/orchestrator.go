package payment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/user"
)

// bookingRef is the slice of a booking row the orchestrator needs. Read via
// the table name to keep this package independent of the booking package.
type bookingRef struct {
	ID        uint
	ClientID  uint
	CleanerID *uint
}

// Orchestrator moves a booking's payment from an authorized-but-uncaptured or
// failed state to a captured/succeeded state, or produces a clear failure
// record.
type Orchestrator struct {
	db   *gorm.DB
	proc Processor
	log  *logrus.Logger

	// Per-payment locks close the window where two concurrent retries could
	// both pass the state check.
	locks sync.Map
}

func NewOrchestrator(db *gorm.DB, proc Processor) *Orchestrator {
	return &Orchestrator{
		db:   db,
		proc: proc,
		log:  logrus.New(),
	}
}

func (o *Orchestrator) lock(paymentID uint) func() {
	value, _ := o.locks.LoadOrStore(paymentID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type RetryResult struct {
	Success   bool    `json:"success"`
	PaymentID uint    `json:"paymentId"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
}

// EnsureCustomer resolves the processor customer reference for a client,
// creating and persisting one when absent. Idempotent: a second call returns
// the stored reference.
func (o *Orchestrator) EnsureCustomer(u *user.User) (string, error) {
	if u.StripeCustomerID != nil && *u.StripeCustomerID != "" {
		return *u.StripeCustomerID, nil
	}

	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	name := ""
	if u.FirstName != nil && u.LastName != nil {
		name = *u.FirstName + " " + *u.LastName
	}

	customerID, err := o.proc.CreateCustomer(email, name)
	if err != nil {
		return "", apperr.Internal("could not create processor customer", err)
	}

	if result := o.db.Model(&user.User{}).Where("id = ?", u.ID).Update("stripe_customer_id", customerID); result.Error != nil {
		return "", apperr.Internal("could not persist processor customer reference", result.Error)
	}
	u.StripeCustomerID = &customerID

	return customerID, nil
}

// Retry charges the original failed amount again as a brand-new payment row.
// Legal only when the stored status is a known-failed one; the prior row is
// never mutated.
func (o *Orchestrator) Retry(paymentID uint) (*RetryResult, error) {
	unlock := o.lock(paymentID)
	defer unlock()

	var prior Payment
	if result := o.db.First(&prior, "id = ?", paymentID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, apperr.Internal("could not load payment", result.Error)
	}

	var ref bookingRef
	result := o.db.Table("bookings").Where("id = ? AND deleted_at IS NULL", prior.BookingID).Limit(1).Find(&ref)
	if result.Error != nil {
		return nil, apperr.Internal("could not load booking", result.Error)
	}
	if ref.ID == 0 {
		return nil, apperr.NotFound("payment has no associated booking")
	}

	if !retryable(prior.Status) {
		return nil, apperr.InvalidState(fmt.Sprintf("payment in status %q cannot be retried", prior.Status))
	}

	var client user.User
	if result := o.db.First(&client, "id = ?", ref.ClientID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, apperr.Internal("could not load client", result.Error)
	}

	customerID, err := o.EnsureCustomer(&client)
	if err != nil {
		return nil, err
	}

	paymentMethodID, err := o.proc.DefaultPaymentMethod(customerID)
	if err != nil {
		return nil, err
	}
	if paymentMethodID == "" {
		return nil, apperr.InvalidState("client has no payment method on file")
	}

	attemptKey := uuid.NewString()
	intent, err := o.proc.CreateConfirmedIntent(IntentParams{
		AmountCents:     ToCents(prior.Amount),
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		Description:     fmt.Sprintf("retry of payment %d for booking %d", prior.ID, ref.ID),
		IdempotencyKey:  attemptKey,
		Metadata: map[string]string{
			"booking_id":       fmt.Sprintf("%d", ref.ID),
			"client_id":        fmt.Sprintf("%d", ref.ClientID),
			"retry_of_payment": fmt.Sprintf("%d", prior.ID),
		},
	})
	if err != nil {
		o.recordFailedAttempt(&prior, &ref, paymentMethodID, attemptKey, err)
		return nil, err
	}

	row := Payment{
		BookingID:             ref.ID,
		CleanerID:             ref.CleanerID,
		Amount:                prior.Amount,
		Status:                intent.Status,
		IsCaptured:            intent.Status == StatusSucceeded,
		StripePaymentIntentID: intent.ID,
		StripePaymentMethodID: paymentMethodID,
		AttemptKey:            attemptKey,
		Description:           fmt.Sprintf("retry of failed payment %d", prior.ID),
	}
	if row.IsCaptured {
		now := time.Now()
		row.PaidAt = &now
	}

	if result := o.db.Create(&row); result.Error != nil {
		// The charge went through; the attempt key lets operators reconcile
		// against the processor.
		o.log.WithFields(logrus.Fields{
			"booking_id":  ref.ID,
			"intent_id":   intent.ID,
			"attempt_key": attemptKey,
		}).WithError(result.Error).Error("charge created but ledger row not persisted")
		return nil, apperr.Internal("charge created but not recorded", result.Error)
	}

	message := "payment retried successfully"
	if intent.Status != StatusSucceeded {
		message = fmt.Sprintf("payment retry ended in status %q", intent.Status)
	}

	return &RetryResult{
		Success:   intent.Status == StatusSucceeded,
		PaymentID: row.ID,
		Status:    intent.Status,
		Amount:    prior.Amount,
		Message:   message,
	}, nil
}

// recordFailedAttempt persists an audit row for a declined retry. A database
// failure here is logged and swallowed so it cannot mask the processor error.
func (o *Orchestrator) recordFailedAttempt(prior *Payment, ref *bookingRef, paymentMethodID, attemptKey string, procErr error) {
	row := Payment{
		BookingID:             ref.ID,
		CleanerID:             ref.CleanerID,
		Amount:                prior.Amount,
		Status:                StatusFailed,
		IsCaptured:            false,
		StripePaymentMethodID: paymentMethodID,
		AttemptKey:            attemptKey,
		Description:           fmt.Sprintf("retry of payment %d failed: %s", prior.ID, procErr.Error()),
	}
	if result := o.db.Create(&row); result.Error != nil {
		o.log.WithFields(logrus.Fields{
			"booking_id": ref.ID,
			"payment_id": prior.ID,
		}).WithError(result.Error).Error("could not record failed retry attempt")
	}
}

// Capture collects funds from a held payment. On processor error the row is
// left unchanged and the error surfaces to the caller; there is no automatic
// retry.
func (o *Orchestrator) Capture(paymentID uint) (*Payment, error) {
	unlock := o.lock(paymentID)
	defer unlock()

	var p Payment
	if result := o.db.First(&p, "id = ?", paymentID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, apperr.Internal("could not load payment", result.Error)
	}

	if p.Status != StatusRequiresCapture || p.IsCaptured {
		return nil, apperr.InvalidState(fmt.Sprintf("payment in status %q is not a capturable hold", p.Status))
	}

	intent, err := o.proc.CaptureIntent(p.StripePaymentIntentID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":      intent.Status,
		"is_captured": intent.Status == StatusSucceeded,
	}
	if intent.Status == StatusSucceeded {
		updates["paid_at"] = time.Now()
	}
	if result := o.db.Model(&p).Updates(updates); result.Error != nil {
		return nil, apperr.Internal("could not record capture", result.Error)
	}

	return &p, nil
}

// ChargeFee creates and confirms a one-off charge against the booking's
// client, used for cancellation fees. Declines are recorded as failed ledger
// rows, same as retry.
func (o *Orchestrator) ChargeFee(bookingID uint, amount float64, reason string) (*Payment, error) {
	var ref bookingRef
	result := o.db.Table("bookings").Where("id = ? AND deleted_at IS NULL", bookingID).Limit(1).Find(&ref)
	if result.Error != nil {
		return nil, apperr.Internal("could not load booking", result.Error)
	}
	if ref.ID == 0 {
		return nil, apperr.NotFound("booking not found")
	}

	var client user.User
	if result := o.db.First(&client, "id = ?", ref.ClientID); result.Error != nil {
		return nil, apperr.Internal("could not load client", result.Error)
	}

	customerID, err := o.EnsureCustomer(&client)
	if err != nil {
		return nil, err
	}

	paymentMethodID, err := o.proc.DefaultPaymentMethod(customerID)
	if err != nil {
		return nil, err
	}
	if paymentMethodID == "" {
		return nil, apperr.InvalidState("client has no payment method on file")
	}

	attemptKey := uuid.NewString()
	description := fmt.Sprintf("cancellation fee for booking %d: %s", ref.ID, reason)

	intent, err := o.proc.CreateConfirmedIntent(IntentParams{
		AmountCents:     ToCents(amount),
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		Description:     description,
		IdempotencyKey:  attemptKey,
		Metadata: map[string]string{
			"booking_id": fmt.Sprintf("%d", ref.ID),
			"client_id":  fmt.Sprintf("%d", ref.ClientID),
			"fee":        "cancellation",
		},
	})
	if err != nil {
		row := Payment{
			BookingID:             ref.ID,
			CleanerID:             ref.CleanerID,
			Amount:                amount,
			Status:                StatusFailed,
			StripePaymentMethodID: paymentMethodID,
			AttemptKey:            attemptKey,
			Description:           fmt.Sprintf("cancellation fee charge failed: %s", err.Error()),
		}
		if result := o.db.Create(&row); result.Error != nil {
			o.log.WithField("booking_id", ref.ID).WithError(result.Error).Error("could not record failed fee charge")
		}
		return nil, err
	}

	row := Payment{
		BookingID:             ref.ID,
		CleanerID:             ref.CleanerID,
		Amount:                amount,
		Status:                intent.Status,
		IsCaptured:            intent.Status == StatusSucceeded,
		StripePaymentIntentID: intent.ID,
		StripePaymentMethodID: paymentMethodID,
		AttemptKey:            attemptKey,
		Description:           description,
	}
	if row.IsCaptured {
		now := time.Now()
		row.PaidAt = &now
	}
	if result := o.db.Create(&row); result.Error != nil {
		o.log.WithFields(logrus.Fields{
			"booking_id":  ref.ID,
			"intent_id":   intent.ID,
			"attempt_key": attemptKey,
		}).WithError(result.Error).Error("fee charged but ledger row not persisted")
		return nil, apperr.Internal("fee charged but not recorded", result.Error)
	}

	return &row, nil
}
