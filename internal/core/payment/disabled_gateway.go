package payment

import (
	"context"
)

// DisabledGateway stands in when no Stripe keys are configured. Webhooks
// are rejected and billing endpoints answer ErrGatewayDisabled, while the
// rest of the marketplace keeps working.
type DisabledGateway struct{}

// NewDisabledGateway creates the offline gateway
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

func (g *DisabledGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	return nil, ErrGatewayDisabled
}

func (g *DisabledGateway) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	return nil, ErrGatewayDisabled
}

func (g *DisabledGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	return nil, ErrGatewayDisabled
}

func (g *DisabledGateway) CreatePortal(ctx context.Context, customerID, returnURL string) (string, error) {
	return "", ErrGatewayDisabled
}

// Name returns the gateway name
func (g *DisabledGateway) Name() string {
	return "disabled"
}
