package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_unit_test"

func stripeSignatureHeader(payload []byte, secret string, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyEvent_ValidSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_unit", testWebhookSecret)
	body := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","created":1700000000,"data":{"object":{"id":"in_1","customer":"cus_1"}}}`)

	ev, err := g.VerifyEvent(body, stripeSignatureHeader(body, testWebhookSecret, time.Now().Unix()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventInvoicePaid, ev.Type)
	assert.JSONEq(t, `{"id":"in_1","customer":"cus_1"}`, string(ev.Object))
}

func TestVerifyEvent_BadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_unit", testWebhookSecret)
	body := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{}}}`)

	_, err := g.VerifyEvent(body, stripeSignatureHeader(body, "whsec_other", time.Now().Unix()))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.VerifyEvent(body, "t=123,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDisabledGateway(t *testing.T) {
	g := NewDisabledGateway()
	_, err := g.VerifyEvent([]byte(`{}`), "")
	assert.ErrorIs(t, err, ErrGatewayDisabled)
	_, err = g.CreatePortal(context.Background(), "cus_1", "http://localhost")
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}

func TestDecodeSubscription_ItemPeriodsAndExpandedProduct(t *testing.T) {
	raw := []byte(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"cancel_at_period_end": true,
		"metadata": {"account_id": "abc"},
		"items": {"data": [{
			"id": "si_1",
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"price": {
				"id": "price_pro",
				"metadata": {},
				"recurring": {"interval": "month"},
				"product": {"id": "prod_1", "name": "Plan Pro", "metadata": {"plan": "pro"}}
			}
		}]}
	}`)

	sub, err := DecodeSubscription(raw)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, int64(1702592000), sub.CurrentPeriodEnd.Unix())
	require.NotNil(t, sub.Price)
	assert.Equal(t, "month", sub.Price.Interval)
	assert.True(t, sub.Price.ProductExpanded)
	assert.Equal(t, "pro", sub.Price.ProductMetadata["plan"])
}

func TestDecodeSubscription_ProductAsID(t *testing.T) {
	raw := []byte(`{"id":"sub_2","customer":{"id":"cus_2","email":"a@b.es"},"status":"past_due",
		"current_period_end":1702592000,
		"items":{"data":[{"price":{"id":"price_basic","product":"prod_basic"}}]}}`)

	sub, err := DecodeSubscription(raw)
	require.NoError(t, err)
	assert.Equal(t, "cus_2", sub.CustomerID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, "prod_basic", sub.Price.ProductID)
	assert.False(t, sub.Price.ProductExpanded)
}

func TestDecodeCheckoutSession_EmailFallback(t *testing.T) {
	raw := []byte(`{"id":"cs_1","mode":"subscription","customer":"cus_1","subscription":"sub_1",
		"client_reference_id":"acc","customer_details":{"email":"pro@example.com"},"metadata":{"plan":"pro"}}`)

	sess, err := DecodeCheckoutSession(raw)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sess.SubscriptionID)
	assert.Equal(t, "pro@example.com", sess.Email)
	assert.Equal(t, "acc", sess.ClientReferenceID)
	assert.Equal(t, "pro", sess.Metadata["plan"])
}

func TestDecodeInvoice_ParentSubscription(t *testing.T) {
	raw := []byte(`{"id":"in_1","customer":"cus_1","customer_email":"x@y.es",
		"parent":{"subscription_details":{"subscription":"sub_9"}},
		"status_transitions":{"paid_at":1700000000}}`)

	inv, err := DecodeInvoice(raw)
	require.NoError(t, err)
	assert.Equal(t, "sub_9", inv.SubscriptionID)
	require.NotNil(t, inv.PaidAt)

	inv, err = DecodeInvoice([]byte(`{"id":"in_2","customer":"cus_1"}`))
	require.NoError(t, err)
	assert.Empty(t, inv.SubscriptionID)
}

func TestRetryableStripeError(t *testing.T) {
	assert.True(t, retryableStripeError(&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, retryableStripeError(fmt.Errorf("wrapped: %w", &stripe.Error{HTTPStatusCode: 503})))
	assert.False(t, retryableStripeError(&stripe.Error{HTTPStatusCode: http.StatusNotFound}))
	assert.False(t, retryableStripeError(errors.New("boom")))
	assert.False(t, retryableStripeError(nil))
}
