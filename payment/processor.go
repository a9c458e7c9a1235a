package payment

// IntentParams describes a charge to create and confirm in one call.
// Redirect-based payment methods are always disabled; the card is charged
// off-session.
type IntentParams struct {
	AmountCents     int64
	CustomerID      string
	PaymentMethodID string
	Description     string
	IdempotencyKey  string
	Metadata        map[string]string
	ManualCapture   bool
}

// Intent is the processor's view of a payment attempt.
type Intent struct {
	ID              string
	Status          string
	PaymentMethodID string
}

// Processor wraps the external card-payment API. The orchestrator depends on
// this interface so tests can stand in a stub.
type Processor interface {
	// CreateCustomer registers a customer and returns the processor's
	// reference for it.
	CreateCustomer(email, name string) (string, error)
	// DefaultPaymentMethod returns the customer's card on file, or "" when
	// none exists.
	DefaultPaymentMethod(customerID string) (string, error)
	// CreateConfirmedIntent creates and immediately confirms a payment
	// intent.
	CreateConfirmedIntent(params IntentParams) (*Intent, error)
	// CaptureIntent collects funds from a previously authorized hold.
	CaptureIntent(intentID string) (*Intent, error)
}
