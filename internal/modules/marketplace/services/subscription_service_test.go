package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlan(t *testing.T) {
	tests := []struct {
		name  string
		price *payment.Price
		want  models.Plan
	}{
		{name: "nil price", price: nil, want: models.PlanBasic},
		{name: "price metadata", price: &payment.Price{Metadata: map[string]string{"plan": "pro"}, ProductMetadata: map[string]string{"plan": "basic"}}, want: models.PlanPro},
		{name: "product metadata", price: &payment.Price{ProductMetadata: map[string]string{"plan": "PRO"}}, want: models.PlanPro},
		{name: "free tag is ignored", price: &payment.Price{Metadata: map[string]string{"plan": "free"}, ProductName: "Plan Pro"}, want: models.PlanPro},
		{name: "product name pro", price: &payment.Price{ProductName: "Presupuéstalo Pro anual"}, want: models.PlanPro},
		{name: "product name básico", price: &payment.Price{ProductName: "Plan Básico"}, want: models.PlanBasic},
		{name: "unknown name", price: &payment.Price{ProductName: "Suscripción"}, want: models.PlanBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePlan(tt.price))
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")

	_, err := f.subscriptions.CreateCheckoutSession(context.Background(), p.ID, "free", "")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	_, err = f.subscriptions.CreateCheckoutSession(context.Background(), p.ID, "pro", "weekly")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	_, err = f.subscriptions.CreateCheckoutSession(context.Background(), uuid.New(), "pro", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	res, err := f.subscriptions.CreateCheckoutSession(context.Background(), p.ID, "Pro", "year")
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)

	require.Len(t, f.gateway.Checkouts, 1)
	req := f.gateway.Checkouts[0]
	assert.Equal(t, "price_pro_y", req.PriceID)
	assert.Equal(t, "pro", req.Plan)
	assert.Equal(t, p.ID, req.AccountID)
	assert.Equal(t, p.Email, req.Email)
	assert.Empty(t, req.CustomerID)
	assert.Equal(t, "https://presupuestalo.test/dashboard/billing?checkout=success", req.SuccessURL)
}

func TestCreatePortalSession(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")

	_, err := f.subscriptions.CreatePortalSession(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNoBillingAccount)

	customer := "cus_portal"
	withCustomer := f.store.AddProfile(models.Profile{Email: "portal@test", StripeCustomerID: &customer})
	url, err := f.subscriptions.CreatePortalSession(context.Background(), withCustomer.ID)
	require.NoError(t, err)
	assert.Contains(t, url, customer)
}

func TestGetSubscription(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")

	sub, err := f.subscriptions.GetSubscription(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)

	f.store.AddSubscription(models.Subscription{AccountID: p.ID, Plan: models.PlanPro})
	sub, err = f.subscriptions.GetSubscription(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.PlanPro, sub.Plan)
}
