package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Webhook payloads carry Stripe objects in the API version of the account.
// These structs accept both the legacy and the current shapes of the fields
// subscription sync reads.

// expandable holds a Stripe reference that is either an ID string or an
// expanded object
type expandable struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
	Expanded bool              `json:"-"`
}

func (e *expandable) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	if s[0] == '"' {
		return json.Unmarshal(b, &e.ID)
	}
	type plain expandable
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = expandable(p)
	e.Expanded = true
	return nil
}

type stripePriceObject struct {
	ID        string            `json:"id"`
	Metadata  map[string]string `json:"metadata"`
	Recurring *struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
	Product expandable `json:"product"`
}

func (p *stripePriceObject) toPrice() *Price {
	if p == nil || p.ID == "" {
		return nil
	}
	price := &Price{
		ID:              p.ID,
		Metadata:        p.Metadata,
		ProductID:       p.Product.ID,
		ProductName:     p.Product.Name,
		ProductMetadata: p.Product.Metadata,
		ProductExpanded: p.Product.Expanded,
	}
	if p.Recurring != nil {
		price.Interval = p.Recurring.Interval
	}
	return price
}

type stripeSubscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           expandable        `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         int64             `json:"canceled_at"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			ID                 string             `json:"id"`
			CurrentPeriodStart int64              `json:"current_period_start"`
			CurrentPeriodEnd   int64              `json:"current_period_end"`
			Price              *stripePriceObject `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// DecodeSubscription reads a subscription object from a webhook event
func DecodeSubscription(raw json.RawMessage) (*SubscriptionDetails, error) {
	var obj stripeSubscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("subscription object has no id")
	}

	details := &SubscriptionDetails{
		ID:                 obj.ID,
		CustomerID:         obj.Customer.ID,
		Status:             obj.Status,
		CancelAtPeriodEnd:  obj.CancelAtPeriodEnd,
		CanceledAt:         unixPtr(obj.CanceledAt),
		CurrentPeriodStart: unixPtr(obj.CurrentPeriodStart),
		CurrentPeriodEnd:   unixPtr(obj.CurrentPeriodEnd),
		Metadata:           obj.Metadata,
	}

	// Newer API versions moved the billing period onto the items
	if len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		if start := unixPtr(item.CurrentPeriodStart); start != nil {
			details.CurrentPeriodStart = start
		}
		if end := unixPtr(item.CurrentPeriodEnd); end != nil {
			details.CurrentPeriodEnd = end
		}
		details.Price = item.Price.toPrice()
	}

	return details, nil
}

// CheckoutSession is a completed checkout as delivered by the webhook
type CheckoutSession struct {
	ID                string
	Mode              string
	CustomerID        string
	Email             string
	SubscriptionID    string
	ClientReferenceID string
	Metadata          map[string]string
}

type stripeCheckoutSessionObject struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          expandable        `json:"customer"`
	CustomerEmail     string            `json:"customer_email"`
	Subscription      expandable        `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	CustomerDetails   *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// DecodeCheckoutSession reads a checkout session object from a webhook event
func DecodeCheckoutSession(raw json.RawMessage) (*CheckoutSession, error) {
	var obj stripeCheckoutSessionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	sess := &CheckoutSession{
		ID:                obj.ID,
		Mode:              obj.Mode,
		CustomerID:        obj.Customer.ID,
		Email:             obj.CustomerEmail,
		SubscriptionID:    obj.Subscription.ID,
		ClientReferenceID: obj.ClientReferenceID,
		Metadata:          obj.Metadata,
	}
	if sess.Email == "" && obj.CustomerDetails != nil {
		sess.Email = obj.CustomerDetails.Email
	}
	if sess.Email == "" && obj.Customer.Expanded {
		sess.Email = obj.Customer.Email
	}
	return sess, nil
}

// Invoice is a paid invoice as delivered by the webhook
type Invoice struct {
	ID             string
	CustomerID     string
	CustomerEmail  string
	SubscriptionID string
	PaidAt         *time.Time
}

type stripeInvoiceObject struct {
	ID            string     `json:"id"`
	Customer      expandable `json:"customer"`
	CustomerEmail string     `json:"customer_email"`
	Subscription  expandable `json:"subscription"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription expandable `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	StatusTransitions struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
}

// DecodeInvoice reads an invoice object from a webhook event
func DecodeInvoice(raw json.RawMessage) (*Invoice, error) {
	var obj stripeInvoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode invoice: %w", err)
	}

	inv := &Invoice{
		ID:             obj.ID,
		CustomerID:     obj.Customer.ID,
		CustomerEmail:  obj.CustomerEmail,
		SubscriptionID: obj.Subscription.ID,
		PaidAt:         unixPtr(obj.StatusTransitions.PaidAt),
	}
	if inv.SubscriptionID == "" && obj.Parent != nil && obj.Parent.SubscriptionDetails != nil {
		inv.SubscriptionID = obj.Parent.SubscriptionDetails.Subscription.ID
	}
	return inv, nil
}
