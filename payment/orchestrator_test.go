package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sparkledash/sparkledash/apperr"
	"github.com/sparkledash/sparkledash/user"
)

// testBooking mirrors the columns the orchestrator reads from the bookings
// table.
type testBooking struct {
	gorm.Model
	ClientID   uint
	CleanerID  *uint
	FinalPrice *float64
}

func (testBooking) TableName() string { return "bookings" }

type stubProcessor struct {
	customerID        string
	createCustomerErr error
	customersCreated  int

	paymentMethodID  string
	paymentMethodErr error

	intentStatus string
	intentErr    error
	intents      []IntentParams

	captureStatus string
	captureErr    error
	captured      []string
}

func (s *stubProcessor) CreateCustomer(email, name string) (string, error) {
	if s.createCustomerErr != nil {
		return "", s.createCustomerErr
	}
	s.customersCreated++
	return s.customerID, nil
}

func (s *stubProcessor) DefaultPaymentMethod(customerID string) (string, error) {
	return s.paymentMethodID, s.paymentMethodErr
}

func (s *stubProcessor) CreateConfirmedIntent(params IntentParams) (*Intent, error) {
	if s.intentErr != nil {
		return nil, s.intentErr
	}
	s.intents = append(s.intents, params)
	return &Intent{
		ID:              fmt.Sprintf("pi_test_%d", len(s.intents)),
		Status:          s.intentStatus,
		PaymentMethodID: params.PaymentMethodID,
	}, nil
}

func (s *stubProcessor) CaptureIntent(intentID string) (*Intent, error) {
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	s.captured = append(s.captured, intentID)
	return &Intent{ID: intentID, Status: s.captureStatus}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &testBooking{}, &Payment{}))

	return db
}

func seedClientAndBooking(t *testing.T, db *gorm.DB, stripeCustomerID *string) (*user.User, *testBooking) {
	t.Helper()

	email := "client@example.com"
	first := "Jane"
	last := "Doe"
	client := &user.User{
		Email:            &email,
		FirstName:        &first,
		LastName:         &last,
		Role:             user.RoleClient,
		StripeCustomerID: stripeCustomerID,
	}
	require.NoError(t, db.Create(client).Error)

	price := 150.0
	b := &testBooking{ClientID: client.ID, FinalPrice: &price}
	require.NoError(t, db.Create(b).Error)

	return client, b
}

func countPayments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&Payment{}).Count(&count).Error)
	return count
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected tagged error, got %v", err)
	return appErr.Kind
}

func TestRetryRejectsNonFailedStatus(t *testing.T) {
	db := newTestDB(t)
	_, b := seedClientAndBooking(t, db, nil)

	succeeded := Payment{BookingID: b.ID, Amount: 150, Status: StatusSucceeded, IsCaptured: true}
	require.NoError(t, db.Create(&succeeded).Error)

	proc := &stubProcessor{customerID: "cus_1", paymentMethodID: "pm_1", intentStatus: StatusSucceeded}
	orc := NewOrchestrator(db, proc)

	_, err := orc.Retry(succeeded.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, kindOf(t, err))
	assert.Equal(t, int64(1), countPayments(t, db), "no new row for an illegal retry")
}

func TestRetryUnknownPayment(t *testing.T) {
	db := newTestDB(t)
	orc := NewOrchestrator(db, &stubProcessor{})

	_, err := orc.Retry(9999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err))
}

func TestRetryPaymentWithoutBooking(t *testing.T) {
	db := newTestDB(t)

	orphan := Payment{BookingID: 4242, Amount: 80, Status: StatusFailed}
	require.NoError(t, db.Create(&orphan).Error)

	orc := NewOrchestrator(db, &stubProcessor{})

	_, err := orc.Retry(orphan.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, kindOf(t, err))
}

func TestRetryCreatesAndPersistsCustomer(t *testing.T) {
	db := newTestDB(t)
	client, b := seedClientAndBooking(t, db, nil)

	failed := Payment{BookingID: b.ID, Amount: 150, Status: StatusFailed}
	require.NoError(t, db.Create(&failed).Error)

	proc := &stubProcessor{customerID: "cus_new", paymentMethodID: "pm_1", intentStatus: StatusSucceeded}
	orc := NewOrchestrator(db, proc)

	result, err := orc.Retry(failed.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, proc.customersCreated, "exactly one customer created")

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, "id = ?", client.ID).Error)
	require.NotNil(t, reloaded.StripeCustomerID)
	assert.Equal(t, "cus_new", *reloaded.StripeCustomerID)
}

func TestEnsureCustomerIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	client, _ := seedClientAndBooking(t, db, nil)

	proc := &stubProcessor{customerID: "cus_once"}
	orc := NewOrchestrator(db, proc)

	first, err := orc.EnsureCustomer(client)
	require.NoError(t, err)
	second, err := orc.EnsureCustomer(client)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, proc.customersCreated)
}

func TestRetryWithoutPaymentMethod(t *testing.T) {
	db := newTestDB(t)
	existing := "cus_existing"
	_, b := seedClientAndBooking(t, db, &existing)

	failed := Payment{BookingID: b.ID, Amount: 150, Status: StatusRequiresPaymentMethod}
	require.NoError(t, db.Create(&failed).Error)

	proc := &stubProcessor{paymentMethodID: ""}
	orc := NewOrchestrator(db, proc)

	_, err := orc.Retry(failed.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, kindOf(t, err))
	assert.Equal(t, int64(1), countPayments(t, db), "no card on file creates zero new rows")
}

func TestRetryProcessorDecline(t *testing.T) {
	db := newTestDB(t)
	existing := "cus_existing"
	_, b := seedClientAndBooking(t, db, &existing)

	failed := Payment{BookingID: b.ID, Amount: 150, Status: StatusFailed}
	require.NoError(t, db.Create(&failed).Error)

	proc := &stubProcessor{
		paymentMethodID: "pm_1",
		intentErr:       apperr.Processor("Your card was declined.", nil),
	}
	orc := NewOrchestrator(db, proc)

	_, err := orc.Retry(failed.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProcessor, kindOf(t, err))

	var rows []Payment
	require.NoError(t, db.Where("id <> ?", failed.ID).Find(&rows).Error)
	require.Len(t, rows, 1, "a declined retry records exactly one audit row")
	assert.Equal(t, StatusFailed, rows[0].Status)
	assert.False(t, rows[0].IsCaptured)
	assert.Contains(t, rows[0].Description, "Your card was declined.")
	assert.Contains(t, rows[0].Description, fmt.Sprintf("retry of payment %d", failed.ID))
	assert.Nil(t, rows[0].PaidAt)

	// The original row is never mutated.
	var original Payment
	require.NoError(t, db.First(&original, "id = ?", failed.ID).Error)
	assert.Equal(t, StatusFailed, original.Status)
}

func TestRetrySuccess(t *testing.T) {
	db := newTestDB(t)
	existing := "cus_existing"
	_, b := seedClientAndBooking(t, db, &existing)

	failed := Payment{BookingID: b.ID, Amount: 150, Status: StatusCanceled}
	require.NoError(t, db.Create(&failed).Error)

	proc := &stubProcessor{paymentMethodID: "pm_1", intentStatus: StatusSucceeded}
	orc := NewOrchestrator(db, proc)

	result, err := orc.Retry(failed.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, StatusSucceeded, result.Status)
	assert.Equal(t, 150.0, result.Amount)

	var row Payment
	require.NoError(t, db.First(&row, "id = ?", result.PaymentID).Error)
	assert.Equal(t, StatusSucceeded, row.Status)
	assert.True(t, row.IsCaptured)
	assert.NotNil(t, row.PaidAt)
	assert.Contains(t, row.Description, fmt.Sprintf("retry of failed payment %d", failed.ID))

	require.Len(t, proc.intents, 1)
	assert.Equal(t, int64(15000), proc.intents[0].AmountCents, "charged the original failed amount in cents")
	assert.NotEmpty(t, proc.intents[0].IdempotencyKey)
	assert.Equal(t, fmt.Sprintf("%d", failed.ID), proc.intents[0].Metadata["retry_of_payment"])
}

func TestCaptureHold(t *testing.T) {
	db := newTestDB(t)
	_, b := seedClientAndBooking(t, db, nil)

	hold := Payment{BookingID: b.ID, Amount: 150, Status: StatusRequiresCapture, StripePaymentIntentID: "pi_hold"}
	require.NoError(t, db.Create(&hold).Error)

	proc := &stubProcessor{captureStatus: StatusSucceeded}
	orc := NewOrchestrator(db, proc)

	_, err := orc.Capture(hold.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pi_hold"}, proc.captured)

	var reloaded Payment
	require.NoError(t, db.First(&reloaded, "id = ?", hold.ID).Error)
	assert.Equal(t, StatusSucceeded, reloaded.Status)
	assert.True(t, reloaded.IsCaptured)
	assert.NotNil(t, reloaded.PaidAt)
}

func TestCaptureLeavesRowOnProcessorError(t *testing.T) {
	db := newTestDB(t)
	_, b := seedClientAndBooking(t, db, nil)

	hold := Payment{BookingID: b.ID, Amount: 150, Status: StatusRequiresCapture, StripePaymentIntentID: "pi_hold"}
	require.NoError(t, db.Create(&hold).Error)

	proc := &stubProcessor{captureErr: apperr.Processor("capture window expired", nil)}
	orc := NewOrchestrator(db, proc)

	_, err := orc.Capture(hold.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProcessor, kindOf(t, err))

	var reloaded Payment
	require.NoError(t, db.First(&reloaded, "id = ?", hold.ID).Error)
	assert.Equal(t, StatusRequiresCapture, reloaded.Status)
	assert.False(t, reloaded.IsCaptured)
}

func TestCaptureRejectsNonHold(t *testing.T) {
	db := newTestDB(t)
	_, b := seedClientAndBooking(t, db, nil)

	settled := Payment{BookingID: b.ID, Amount: 150, Status: StatusSucceeded, IsCaptured: true}
	require.NoError(t, db.Create(&settled).Error)

	orc := NewOrchestrator(db, &stubProcessor{})

	_, err := orc.Capture(settled.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, kindOf(t, err))
}

func TestNetTotalExcludesUncaptured(t *testing.T) {
	db := newTestDB(t)
	_, b := seedClientAndBooking(t, db, nil)

	now := time.Now()
	captured := Payment{BookingID: b.ID, Amount: 150, Status: StatusSucceeded, IsCaptured: true, PaidAt: &now}
	canceled := Payment{BookingID: b.ID, Amount: 150, Status: StatusCanceled, IsCaptured: false}
	require.NoError(t, db.Create(&captured).Error)
	require.NoError(t, db.Create(&canceled).Error)

	total, err := NetTotal(db, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, total, "non-captured rows are excluded from the net total")
	assert.Equal(t, *b.FinalPrice, total, "net total reconciles against the final price")
}

func TestChargeFeeRecordsLedgerRow(t *testing.T) {
	db := newTestDB(t)
	existing := "cus_existing"
	_, b := seedClientAndBooking(t, db, &existing)

	proc := &stubProcessor{paymentMethodID: "pm_1", intentStatus: StatusSucceeded}
	orc := NewOrchestrator(db, proc)

	row, err := orc.ChargeFee(b.ID, 50, "client request")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, row.Status)
	assert.True(t, row.IsCaptured)
	assert.Equal(t, 50.0, row.Amount)
	assert.Contains(t, row.Description, "client request")

	require.Len(t, proc.intents, 1)
	assert.Equal(t, int64(5000), proc.intents[0].AmountCents)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(15000), ToCents(150.0))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(10), ToCents(0.1))
	// float rounding must not truncate
	assert.Equal(t, int64(2997), ToCents(29.97))
}
