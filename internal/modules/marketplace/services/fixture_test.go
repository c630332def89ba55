package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/export"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/testutil"
)

type fixture struct {
	store    *testutil.MemStore
	gateway  *testutil.FakeGateway
	notifier *testutil.FakeNotifier
	auditor  *testutil.FakeAuditor
	policy   Policy
	now      time.Time

	ledger        *LedgerService
	referrals     *ReferralService
	subscriptions *SubscriptionService
	webhooks      *WebhookService
	leads         *LeadService
	claims        *ClaimService
	profiles      *ProfileService
}

var testPrices = PriceCatalog{
	models.PlanBasic: {models.IntervalMonth: "price_basic_m", models.IntervalYear: "price_basic_y"},
	models.PlanPro:   {models.IntervalMonth: "price_pro_m", models.IntervalYear: "price_pro_y"},
}

func newFixture(t *testing.T, tweak ...func(*Policy)) *fixture {
	t.Helper()

	f := &fixture{
		store:    testutil.NewMemStore(),
		gateway:  testutil.NewFakeGateway(),
		notifier: &testutil.FakeNotifier{},
		auditor:  &testutil.FakeAuditor{},
		policy:   DefaultPolicy(),
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	for _, fn := range tweak {
		fn(&f.policy)
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)

	f.ledger = NewLedgerService(f.store, export.NewService())
	f.ledger.now = clock
	f.referrals = NewReferralService(f.store, f.policy, f.notifier, f.auditor, "https://presupuestalo.test/")
	f.referrals.now = clock
	f.subscriptions = NewSubscriptionService(f.store, f.gateway, f.referrals, f.policy, testPrices, f.auditor, "https://presupuestalo.test")
	f.subscriptions.now = clock
	f.webhooks = NewWebhookService(f.store, f.gateway, f.subscriptions)
	f.webhooks.now = clock
	f.leads = NewLeadService(f.store, f.policy, f.auditor)
	f.leads.now = clock
	f.claims = NewClaimService(f.store, f.policy, f.notifier, f.auditor)
	f.claims.now = clock
	f.profiles = NewProfileService(f.store)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) professional(company string) models.Profile {
	return f.store.AddProfile(models.Profile{
		Email:       uuid.NewString()[:8] + "@reformas.test",
		FullName:    "Ana Ruiz",
		CompanyName: company,
	})
}

// paidSubscription registers a provider subscription whose price carries plan
func (f *fixture) paidSubscription(id, customerID string, plan models.Plan) *payment.SubscriptionDetails {
	start := f.now
	end := f.now.AddDate(0, 1, 0)
	sub := &payment.SubscriptionDetails{
		ID:                 id,
		CustomerID:         customerID,
		Status:             "active",
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		Price: &payment.Price{
			ID:              "price_" + string(plan),
			Interval:        models.IntervalMonth,
			Metadata:        map[string]string{"plan": string(plan)},
			ProductID:       "prod_" + string(plan),
			ProductExpanded: true,
		},
	}
	f.gateway.AddSubscription(sub)
	return sub
}

func checkoutObject(accountID uuid.UUID, customerID, subscriptionID string, plan models.Plan) map[string]interface{} {
	return map[string]interface{}{
		"id":                  "cs_" + subscriptionID,
		"object":              "checkout.session",
		"mode":                "subscription",
		"customer":            customerID,
		"subscription":        subscriptionID,
		"client_reference_id": accountID.String(),
		"metadata": map[string]string{
			"account_id": accountID.String(),
			"plan":       string(plan),
		},
	}
}
