package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
)

// ValidSignature is the only signature FakeGateway accepts
const ValidSignature = "t=1,v1=valid"

// StripeEvent builds a webhook payload in the provider's envelope format
func StripeEvent(id, eventType string, object interface{}) []byte {
	raw, err := json.Marshal(map[string]interface{}{
		"id":      id,
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	})
	if err != nil {
		panic(err)
	}
	return raw
}

// FakeGateway is an in-memory payment.Gateway
type FakeGateway struct {
	mu sync.Mutex

	Subscriptions map[string]*payment.SubscriptionDetails
	// SubscriptionErr is returned by GetSubscription when set
	SubscriptionErr error

	Checkouts   []payment.CheckoutRequest
	Portals     []string
	lookupCount int
}

// NewFakeGateway creates an empty gateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{Subscriptions: map[string]*payment.SubscriptionDetails{}}
}

// AddSubscription makes sub retrievable by its id
func (g *FakeGateway) AddSubscription(sub *payment.SubscriptionDetails) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Subscriptions[sub.ID] = sub
}

// Lookups returns how many times GetSubscription was called
func (g *FakeGateway) Lookups() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookupCount
}

func (g *FakeGateway) VerifyEvent(payload []byte, signature string) (*payment.Event, error) {
	if signature != ValidSignature {
		return nil, payment.ErrInvalidSignature
	}
	var envelope struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
	return &payment.Event{
		ID:      envelope.ID,
		Type:    envelope.Type,
		Object:  envelope.Data.Object,
		Created: time.Unix(envelope.Created, 0).UTC(),
	}, nil
}

func (g *FakeGateway) GetSubscription(_ context.Context, id string) (*payment.SubscriptionDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookupCount++
	if g.SubscriptionErr != nil {
		return nil, g.SubscriptionErr
	}
	sub, ok := g.Subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", id)
	}
	copied := *sub
	return &copied, nil
}

func (g *FakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Checkouts = append(g.Checkouts, req)
	id := fmt.Sprintf("cs_test_%d", len(g.Checkouts))
	return &payment.CheckoutResult{SessionID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *FakeGateway) CreatePortal(_ context.Context, customerID, returnURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Portals = append(g.Portals, customerID)
	return "https://billing.stripe.test/" + customerID, nil
}

func (g *FakeGateway) Name() string { return "stripe" }

// SentNotification is a notification captured by FakeNotifier
type SentNotification struct {
	AccountID uuid.UUID
	notification.Notification
}

// FakeNotifier records notifications instead of delivering them
type FakeNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
}

func (n *FakeNotifier) Notify(_ context.Context, accountID uuid.UUID, msg notification.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentNotification{AccountID: accountID, Notification: msg})
}

// Sent returns the captured notifications in order
func (n *FakeNotifier) Sent() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentNotification(nil), n.sent...)
}

// FakeAuditor records audit entries in memory
type FakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *FakeAuditor) Record(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

// Actions returns the recorded actions in order
func (a *FakeAuditor) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

// Entries returns the recorded entries in order
func (a *FakeAuditor) Entries() []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Entry(nil), a.entries...)
}
