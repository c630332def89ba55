package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrGatewayDisabled  = errors.New("billing gateway not configured")
)

// Gateway is the billing provider as seen by subscription sync and the
// billing endpoints
type Gateway interface {
	// VerifyEvent authenticates a webhook delivery and decodes its envelope.
	// Returns ErrInvalidSignature when the signature does not match.
	VerifyEvent(payload []byte, signature string) (*Event, error)

	// GetSubscription fetches a subscription with its price and product
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error)

	// CreateCheckout starts a hosted checkout for a subscription
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)

	// CreatePortal returns a self-service billing portal URL
	CreatePortal(ctx context.Context, customerID, returnURL string) (string, error)

	Name() string
}

// Event is a verified webhook event
type Event struct {
	ID      string
	Type    string
	Object  json.RawMessage
	Created time.Time
}

// Event types handled by subscription sync
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoicePaid         = "invoice.paid"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Price is the plan-relevant view of a provider price
type Price struct {
	ID              string
	Interval        string // month, year
	Metadata        map[string]string
	ProductID       string
	ProductName     string
	ProductMetadata map[string]string
	// ProductExpanded is false when only the product ID was delivered
	ProductExpanded bool
}

// SubscriptionDetails is the provider subscription reduced to what the
// plan assignment stores
type SubscriptionDetails struct {
	ID                 string
	CustomerID         string
	Status             string
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	Price              *Price
	Metadata           map[string]string
}

// CheckoutRequest describes a subscription checkout for one account
type CheckoutRequest struct {
	AccountID  uuid.UUID
	Email      string
	CustomerID string
	PriceID    string
	Plan       string
	SuccessURL string
	CancelURL  string
}

// CheckoutResult contains the hosted checkout session
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func unixPtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
