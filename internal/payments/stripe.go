package payments

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// defaultCallTimeout bounds every provider call. A timed-out call surfaces
// as a ProviderError and therefore as payment_failed; it is never retried
// automatically, to avoid duplicate charges.
const defaultCallTimeout = 10 * time.Second

// StripeProvider is the live payment provider backed by the Stripe API.
type StripeProvider struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeProvider creates a StripeProvider using the given secret key.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, timeout: defaultCallTimeout}
}

// Live reports that this provider performs real Stripe calls.
func (p *StripeProvider) Live() bool { return true }

// CreateIntent creates a Stripe payment intent.
func (p *StripeProvider) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	piParams := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(params.AmountMinorUnits),
		Currency:    stripe.String(params.Currency),
		Description: stripe.String(params.Description),
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, toProviderError(err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// RetrieveIntent returns the settlement status of a Stripe payment intent.
func (p *StripeProvider) RetrieveIntent(ctx context.Context, id string) (IntentStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pi, err := p.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", toProviderError(err)
	}
	return IntentStatus(pi.Status), nil
}

// toProviderError maps a Stripe SDK error to a ProviderError, distinguishing
// the "no such payment_intent" case.
func toProviderError(err error) *ProviderError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &ProviderError{
			Code:     string(stripeErr.Code),
			Message:  stripeErr.Msg,
			NotFound: stripeErr.Code == stripe.ErrorCodeResourceMissing,
		}
	}
	return &ProviderError{Message: err.Error()}
}
