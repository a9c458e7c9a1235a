package payment

import (
	"errors"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/sparkledash/sparkledash/apperr"
)

// StripeProcessor implements Processor against the Stripe API. Calls go
// through a circuit breaker so a processor outage fails fast instead of
// stacking up blocked requests.
type StripeProcessor struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProcessor{
		api: api,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "stripe",
		}),
	}
}

// wrapErr converts Stripe's error type so callers see the processor's own
// message with a BAD_REQUEST classification. Breaker and transport errors
// stay internal.
func wrapErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = "payment processor rejected the request"
		}
		return apperr.Processor(msg, err)
	}
	return apperr.Internal("payment processor unavailable", err)
}

func (p *StripeProcessor) CreateCustomer(email, name string) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.api.Customers.New(&stripe.CustomerParams{
			Email: stripe.String(email),
			Name:  stripe.String(name),
		})
	})
	if err != nil {
		return "", wrapErr(err)
	}
	return result.(*stripe.Customer).ID, nil
}

func (p *StripeProcessor) DefaultPaymentMethod(customerID string) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		cust, err := p.api.Customers.Get(customerID, nil)
		if err != nil {
			return nil, err
		}
		if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
			return cust.InvoiceSettings.DefaultPaymentMethod.ID, nil
		}

		// No explicit default: fall back to the first attached card.
		iter := p.api.PaymentMethods.List(&stripe.PaymentMethodListParams{
			Customer: stripe.String(customerID),
			Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
		})
		for iter.Next() {
			return iter.PaymentMethod().ID, nil
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return "", nil
	})
	if err != nil {
		return "", wrapErr(err)
	}
	return result.(string), nil
}

func (p *StripeProcessor) CreateConfirmedIntent(params IntentParams) (*Intent, error) {
	piParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(params.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(params.CustomerID),
		PaymentMethod: stripe.String(params.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(params.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if params.ManualCapture {
		piParams.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.api.PaymentIntents.New(piParams)
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	return intentOf(result.(*stripe.PaymentIntent)), nil
}

func (p *StripeProcessor) CaptureIntent(intentID string) (*Intent, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.api.PaymentIntents.Capture(intentID, &stripe.PaymentIntentCaptureParams{})
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	return intentOf(result.(*stripe.PaymentIntent)), nil
}

func intentOf(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:     pi.ID,
		Status: string(pi.Status),
	}
	if pi.PaymentMethod != nil {
		intent.PaymentMethodID = pi.PaymentMethod.ID
	}
	return intent
}
