package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway talks to Stripe for checkout, portal and subscription lookups
type StripeGateway struct {
	webhookSecret string
	retry         retrypolicy.RetryPolicy[*stripe.Subscription]
}

// NewStripeGateway creates a Stripe gateway and sets the global API key
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey

	return &StripeGateway{
		webhookSecret: webhookSecret,
		retry: retrypolicy.NewBuilder[*stripe.Subscription]().
			HandleIf(func(_ *stripe.Subscription, err error) bool { return retryableStripeError(err) }).
			WithBackoff(200*time.Millisecond, 2*time.Second).
			WithJitterFactor(0.1).
			WithMaxRetries(3).
			Build(),
	}
}

// VerifyEvent checks the Stripe-Signature header and decodes the envelope
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, fmt.Errorf("webhook event is missing id or type")
	}

	event := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		event.Object = ev.Data.Raw
	}
	return event, nil
}

// GetSubscription fetches a subscription with the price product expanded.
// Rate limits and 5xx answers are retried.
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	sub, err := failsafe.With(g.retry).WithContext(ctx).Get(func() (*stripe.Subscription, error) {
		params := &stripe.SubscriptionParams{}
		params.Context = ctx
		params.AddExpand("items.data.price.product")
		return subscription.Get(subscriptionID, params)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %s: %w", subscriptionID, err)
	}
	return subscriptionDetails(sub), nil
}

// CreateCheckout creates a hosted subscription checkout. The account ID
// travels in client_reference_id and metadata so the webhook can resolve it.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.AccountID.String()),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"account_id": req.AccountID.String(),
				"plan":       req.Plan,
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("account_id", req.AccountID.String())
	params.AddMetadata("plan", req.Plan)

	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Info().
		Str("account_id", req.AccountID.String()).
		Str("plan", req.Plan).
		Str("session_id", sess.ID).
		Msg("💳 Checkout session created")

	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// CreatePortal opens a billing portal session for an existing customer
func (g *StripeGateway) CreatePortal(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

func retryableStripeError(err error) bool {
	if err == nil {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
			stripeErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

func subscriptionDetails(sub *stripe.Subscription) *SubscriptionDetails {
	details := &SubscriptionDetails{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CanceledAt:        unixPtr(sub.CanceledAt),
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		details.CustomerID = sub.Customer.ID
	}

	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return details
	}
	item := sub.Items.Data[0]
	details.CurrentPeriodStart = unixPtr(item.CurrentPeriodStart)
	details.CurrentPeriodEnd = unixPtr(item.CurrentPeriodEnd)

	if item.Price != nil {
		price := &Price{
			ID:       item.Price.ID,
			Metadata: item.Price.Metadata,
		}
		if item.Price.Recurring != nil {
			price.Interval = string(item.Price.Recurring.Interval)
		}
		if p := item.Price.Product; p != nil {
			price.ProductID = p.ID
			price.ProductName = p.Name
			price.ProductMetadata = p.Metadata
			price.ProductExpanded = p.Name != ""
		}
		details.Price = price
	}
	return details
}
