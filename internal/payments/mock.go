package payments

import (
	"context"

	"github.com/google/uuid"
)

// MockProvider simulates the payment provider for demo environments where no
// Stripe credential is configured. Every intent it mints carries the mock
// prefix and every retrieval reports success.
type MockProvider struct{}

// NewMockProvider creates a MockProvider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Live reports that this provider never charges anything.
func (p *MockProvider) Live() bool { return false }

// CreateIntent mints a synthetic intent with a mock client secret.
func (p *MockProvider) CreateIntent(_ context.Context, _ CreateIntentParams) (*Intent, error) {
	id := mockIntentPrefix + uuid.NewString()
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		MockMode:     true,
	}, nil
}

// RetrieveIntent always reports success for synthetic intents.
func (p *MockProvider) RetrieveIntent(_ context.Context, _ string) (IntentStatus, error) {
	return IntentStatusSucceeded, nil
}
