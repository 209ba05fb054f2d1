// Package payments abstracts the payment provider behind a small port with
// two variants: a live Stripe-backed provider and a mock provider for demo
// environments with no credential configured. The variant is selected once
// at process startup.
package payments

import (
	"context"
	"fmt"
	"strings"
)

// mockIntentPrefix marks synthetic payment intents minted by the mock
// provider. Intents with this prefix are treated as automatically succeeded
// and never produce a payment record.
const mockIntentPrefix = "pi_mock_"

// IsMockIntent reports whether the intent ID denotes a synthetic payment.
func IsMockIntent(id string) bool {
	return strings.HasPrefix(id, mockIntentPrefix)
}

// Intent is a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	MockMode     bool
}

// IntentStatus is the provider-side settlement status of an intent.
type IntentStatus string

// IntentStatusSucceeded is the only status that confirms a booking; every
// other provider status maps to payment_failed.
const IntentStatusSucceeded IntentStatus = "succeeded"

// CreateIntentParams holds the inputs for intent creation.
type CreateIntentParams struct {
	AmountMinorUnits int64
	Currency         string
	Description      string
	Metadata         map[string]string
}

// Provider is the payment-provider capability the booking core consumes.
type Provider interface {
	// CreateIntent creates a payment intent for the given amount.
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)

	// RetrieveIntent returns the settlement status of an existing intent.
	// Lookup and transport failures return a *ProviderError.
	RetrieveIntent(ctx context.Context, id string) (IntentStatus, error)

	// Live reports whether this provider charges real (test-mode) money.
	Live() bool
}

// ProviderError is a transport or lookup failure from the payment provider.
type ProviderError struct {
	Code     string
	Message  string
	NotFound bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error: %s", e.Message)
}
