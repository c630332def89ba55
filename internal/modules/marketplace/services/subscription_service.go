package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
	"github.com/rs/zerolog/log"
)

// PriceCatalog maps plan and billing interval to the checkout price id
type PriceCatalog map[models.Plan]map[string]string

// PriceCatalogFromConfig builds the catalog from the configured price ids
func PriceCatalogFromConfig(prices config.StripePrices) PriceCatalog {
	return PriceCatalog{
		models.PlanBasic: {models.IntervalMonth: prices.BasicMonthly, models.IntervalYear: prices.BasicYearly},
		models.PlanPro:   {models.IntervalMonth: prices.ProMonthly, models.IntervalYear: prices.ProYearly},
	}
}

// Lookup returns the price id for plan and interval, "" when not configured
func (c PriceCatalog) Lookup(plan models.Plan, interval string) string {
	return c[plan][interval]
}

// SubscriptionService keeps plan assignments in step with the billing provider
type SubscriptionService struct {
	store      repositories.Store
	gateway    payment.Gateway
	referrals  *ReferralService
	policy     Policy
	prices     PriceCatalog
	auditor    Auditor
	appBaseURL string

	now func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	store repositories.Store,
	gateway payment.Gateway,
	referrals *ReferralService,
	policy Policy,
	prices PriceCatalog,
	auditor Auditor,
	appBaseURL string,
) *SubscriptionService {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &SubscriptionService{
		store:      store,
		gateway:    gateway,
		referrals:  referrals,
		policy:     policy,
		prices:     prices,
		auditor:    auditor,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		now:        time.Now,
	}
}

// ResolvePlan derives the plan of a price: price metadata, then product
// metadata, then keywords in the product name, then basic
func ResolvePlan(price *payment.Price) models.Plan {
	if price == nil {
		return models.PlanBasic
	}
	if plan, ok := paidPlan(price.Metadata["plan"]); ok {
		return plan
	}
	if plan, ok := paidPlan(price.ProductMetadata["plan"]); ok {
		return plan
	}
	name := strings.ToLower(price.ProductName)
	switch {
	case strings.Contains(name, "pro"):
		return models.PlanPro
	case strings.Contains(name, "basic"), strings.Contains(name, "básico"), strings.Contains(name, "basico"):
		return models.PlanBasic
	}
	return models.PlanBasic
}

func paidPlan(raw string) (models.Plan, bool) {
	plan, ok := models.ParsePlan(raw)
	if !ok || !plan.IsPaid() {
		return "", false
	}
	return plan, true
}

// billingUpdate is a decoded webhook event with everything fetched from the
// provider, ready to be applied inside a transaction
type billingUpdate struct {
	eventType    string
	checkout     *payment.CheckoutSession
	invoice      *payment.Invoice
	subscription *payment.SubscriptionDetails
}

// prepare decodes ev and performs the provider lookups it needs. Network
// calls happen here so the database transaction stays short. A nil update
// means the event carries nothing to apply.
func (s *SubscriptionService) prepare(ctx context.Context, ev *payment.Event) (*billingUpdate, error) {
	u := &billingUpdate{eventType: ev.Type}

	switch ev.Type {
	case payment.EventCheckoutCompleted:
		sess, err := payment.DecodeCheckoutSession(ev.Object)
		if err != nil {
			return nil, err
		}
		if sess.Mode != "subscription" || sess.SubscriptionID == "" {
			return nil, nil
		}
		u.checkout = sess
		if u.subscription, err = s.gateway.GetSubscription(ctx, sess.SubscriptionID); err != nil {
			return nil, err
		}

	case payment.EventInvoicePaid:
		inv, err := payment.DecodeInvoice(ev.Object)
		if err != nil {
			return nil, err
		}
		if inv.SubscriptionID == "" {
			return nil, nil
		}
		u.invoice = inv
		if u.subscription, err = s.gateway.GetSubscription(ctx, inv.SubscriptionID); err != nil {
			return nil, err
		}

	case payment.EventSubscriptionUpdated, payment.EventSubscriptionDeleted:
		sub, err := payment.DecodeSubscription(ev.Object)
		if err != nil {
			return nil, err
		}
		u.subscription = sub
		if ev.Type == payment.EventSubscriptionUpdated && needsProductLookup(sub.Price) {
			if u.subscription, err = s.gateway.GetSubscription(ctx, sub.ID); err != nil {
				return nil, err
			}
		}

	default:
		return nil, nil
	}
	return u, nil
}

// needsProductLookup is true when the plan can only be read from a product
// that the event did not expand
func needsProductLookup(price *payment.Price) bool {
	if price == nil || price.ProductExpanded {
		return false
	}
	_, ok := paidPlan(price.Metadata["plan"])
	return !ok
}

func (s *SubscriptionService) applyTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, u *billingUpdate) error {
	switch u.eventType {
	case payment.EventCheckoutCompleted:
		return s.checkoutCompletedTx(ctx, tx, hooks, u.checkout, u.subscription)
	case payment.EventInvoicePaid:
		return s.invoicePaidTx(ctx, tx, hooks, u.invoice, u.subscription)
	case payment.EventSubscriptionUpdated:
		return s.subscriptionUpdatedTx(ctx, tx, hooks, u.subscription)
	case payment.EventSubscriptionDeleted:
		return s.subscriptionDeletedTx(ctx, tx, hooks, u.subscription)
	}
	return nil
}

// HandleCheckoutCompleted applies a completed subscription checkout
func (s *SubscriptionService) HandleCheckoutCompleted(ctx context.Context, sess *payment.CheckoutSession) error {
	if sess.Mode != "subscription" || sess.SubscriptionID == "" {
		return nil
	}
	details, err := s.gateway.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return err
	}
	return inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		return s.checkoutCompletedTx(ctx, tx, hooks, sess, details)
	})
}

// HandleInvoicePaid applies a paid renewal invoice
func (s *SubscriptionService) HandleInvoicePaid(ctx context.Context, inv *payment.Invoice) error {
	if inv.SubscriptionID == "" {
		return nil
	}
	details, err := s.gateway.GetSubscription(ctx, inv.SubscriptionID)
	if err != nil {
		return err
	}
	return inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		return s.invoicePaidTx(ctx, tx, hooks, inv, details)
	})
}

// HandleSubscriptionUpdated refreshes an existing assignment
func (s *SubscriptionService) HandleSubscriptionUpdated(ctx context.Context, sub *payment.SubscriptionDetails) error {
	return inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		return s.subscriptionUpdatedTx(ctx, tx, hooks, sub)
	})
}

// HandleSubscriptionDeleted cancels an assignment and drops the account to free
func (s *SubscriptionService) HandleSubscriptionDeleted(ctx context.Context, sub *payment.SubscriptionDetails) error {
	return inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		return s.subscriptionDeletedTx(ctx, tx, hooks, sub)
	})
}

func (s *SubscriptionService) checkoutCompletedTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, sess *payment.CheckoutSession, details *payment.SubscriptionDetails) error {
	profile, err := s.resolveCheckoutAccount(ctx, tx, sess)
	if err != nil {
		return err
	}

	plan, ok := paidPlan(sess.Metadata["plan"])
	if !ok && details != nil {
		plan = ResolvePlan(details.Price)
	} else if !ok {
		plan = models.PlanBasic
	}

	sub := &models.Subscription{
		AccountID:            profile.ID,
		Plan:                 plan,
		StripeSubscriptionID: sess.SubscriptionID,
		StripeCustomerID:     sess.CustomerID,
		Status:               models.SubscriptionActive,
	}
	applyDetails(sub, details)
	if err := tx.Subscriptions().Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	if err := tx.Profiles().UpdatePlan(ctx, profile.ID, plan); err != nil {
		return fmt.Errorf("failed to update profile plan: %w", err)
	}
	if err := backfillCustomerID(ctx, tx, profile, sub.StripeCustomerID); err != nil {
		return err
	}

	if _, err := ensureMinimumTx(ctx, tx, hooks, profile.ID, s.policy.Floor(plan), planFloorMovement(plan, sub.StripeSubscriptionID)); err != nil {
		return err
	}

	if _, err := s.referrals.grantTx(ctx, tx, hooks, profile.ID, plan); err != nil {
		return err
	}

	s.synced(hooks, profile.ID, payment.EventCheckoutCompleted, sub)
	return nil
}

func (s *SubscriptionService) invoicePaidTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, inv *payment.Invoice, details *payment.SubscriptionDetails) error {
	existing, err := tx.Subscriptions().GetByStripeSubscriptionID(ctx, inv.SubscriptionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	profile, err := s.resolveInvoiceAccount(ctx, tx, inv, existing)
	if err != nil {
		return err
	}

	var plan models.Plan
	switch {
	case details != nil && details.Price != nil:
		plan = ResolvePlan(details.Price)
	case details != nil && details.Metadata["plan"] != "":
		plan, _ = paidPlan(details.Metadata["plan"])
	}
	if plan == "" && existing != nil {
		plan = existing.Plan
	}
	if !plan.IsPaid() {
		plan = models.PlanBasic
	}

	if _, err := ensureMinimumTx(ctx, tx, hooks, profile.ID, s.policy.Floor(plan), planFloorMovement(plan, inv.SubscriptionID)); err != nil {
		return err
	}

	sub := &models.Subscription{
		AccountID:            profile.ID,
		Plan:                 plan,
		StripeSubscriptionID: inv.SubscriptionID,
		StripeCustomerID:     inv.CustomerID,
	}
	if existing != nil && existing.AccountID == profile.ID {
		*sub = *existing
		sub.Plan = plan
	}
	applyDetails(sub, details)
	sub.Status = models.SubscriptionActive
	if err := tx.Subscriptions().Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	if err := tx.Profiles().UpdatePlan(ctx, profile.ID, plan); err != nil {
		return fmt.Errorf("failed to update profile plan: %w", err)
	}

	s.synced(hooks, profile.ID, payment.EventInvoicePaid, sub)
	return nil
}

func (s *SubscriptionService) subscriptionUpdatedTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, details *payment.SubscriptionDetails) error {
	existing, err := tx.Subscriptions().GetByStripeSubscriptionID(ctx, details.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Info().Str("stripe_subscription_id", details.ID).Msg("Subscription update for unknown subscription, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if details.Price != nil {
		existing.Plan = ResolvePlan(details.Price)
	}
	applyDetails(existing, details)
	if err := tx.Subscriptions().Update(ctx, existing); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if plan, ok := profilePlanFor(existing); ok {
		if err := tx.Profiles().UpdatePlan(ctx, existing.AccountID, plan); err != nil {
			return fmt.Errorf("failed to update profile plan: %w", err)
		}
	}

	s.synced(hooks, existing.AccountID, payment.EventSubscriptionUpdated, existing)
	return nil
}

func (s *SubscriptionService) subscriptionDeletedTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, details *payment.SubscriptionDetails) error {
	existing, err := tx.Subscriptions().GetByStripeSubscriptionID(ctx, details.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Info().Str("stripe_subscription_id", details.ID).Msg("Subscription deletion for unknown subscription, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	existing.Status = models.SubscriptionCanceled
	existing.CancelAtPeriodEnd = false
	existing.CanceledAt = details.CanceledAt
	if existing.CanceledAt == nil {
		now := s.now()
		existing.CanceledAt = &now
	}
	if err := tx.Subscriptions().Update(ctx, existing); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if err := tx.Profiles().UpdatePlan(ctx, existing.AccountID, models.PlanFree); err != nil {
		return fmt.Errorf("failed to update profile plan: %w", err)
	}

	s.synced(hooks, existing.AccountID, payment.EventSubscriptionDeleted, existing)
	return nil
}

// resolveCheckoutAccount tries the account reference we put on the session,
// then the customer id, then the email
func (s *SubscriptionService) resolveCheckoutAccount(ctx context.Context, tx repositories.Store, sess *payment.CheckoutSession) (*models.Profile, error) {
	for _, ref := range []string{sess.Metadata["account_id"], sess.ClientReferenceID} {
		id, err := uuid.Parse(ref)
		if err != nil {
			continue
		}
		profile, err := tx.Profiles().GetByID(ctx, id)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}
	return s.resolveByCustomer(ctx, tx, sess.CustomerID, sess.Email)
}

func (s *SubscriptionService) resolveInvoiceAccount(ctx context.Context, tx repositories.Store, inv *payment.Invoice, existing *models.Subscription) (*models.Profile, error) {
	profile, err := s.resolveByCustomer(ctx, tx, inv.CustomerID, inv.CustomerEmail)
	if err == nil || !errors.Is(err, ErrAccountNotResolved) || existing == nil {
		return profile, err
	}
	profile, err = tx.Profiles().GetByID(ctx, existing.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription owner: %w", err)
	}
	return profile, nil
}

// resolveByCustomer looks the account up by stored customer id, then by
// email, backfilling the customer id on an email match
func (s *SubscriptionService) resolveByCustomer(ctx context.Context, tx repositories.Store, customerID, email string) (*models.Profile, error) {
	if customerID != "" {
		profile, err := tx.Profiles().GetByStripeCustomerID(ctx, customerID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up customer: %w", err)
		}
	}

	if email != "" {
		profile, err := tx.Profiles().GetByEmail(ctx, email)
		if err == nil {
			if err := backfillCustomerID(ctx, tx, profile, customerID); err != nil {
				return nil, err
			}
			return profile, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: customer=%q email=%q", ErrAccountNotResolved, customerID, email)
}

func backfillCustomerID(ctx context.Context, tx repositories.Store, profile *models.Profile, customerID string) error {
	if customerID == "" || (profile.StripeCustomerID != nil && *profile.StripeCustomerID == customerID) {
		return nil
	}
	if err := tx.Profiles().UpdateStripeCustomerID(ctx, profile.ID, customerID); err != nil {
		return fmt.Errorf("failed to store customer id: %w", err)
	}
	profile.StripeCustomerID = &customerID
	return nil
}

// applyDetails copies the provider's view of a subscription onto the assignment
func applyDetails(sub *models.Subscription, details *payment.SubscriptionDetails) {
	if details == nil {
		return
	}
	if details.Status != "" {
		sub.Status = details.Status
	}
	if details.CustomerID != "" {
		sub.StripeCustomerID = details.CustomerID
	}
	sub.CancelAtPeriodEnd = details.CancelAtPeriodEnd
	sub.CanceledAt = details.CanceledAt
	if details.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = details.CurrentPeriodStart
	}
	if details.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = details.CurrentPeriodEnd
	}
	if details.Price != nil {
		sub.StripePriceID = details.Price.ID
		if details.Price.Interval != "" {
			sub.BillingInterval = details.Price.Interval
		}
	}
}

// profilePlanFor maps a subscription status to the plan the profile should
// carry; false leaves the profile untouched
func profilePlanFor(sub *models.Subscription) (models.Plan, bool) {
	switch sub.Status {
	case "active", "trialing":
		return sub.Plan, true
	case "canceled", "unpaid", "incomplete_expired":
		return models.PlanFree, true
	}
	return "", false
}

func planFloorMovement(plan models.Plan, subscriptionID string) Movement {
	return Movement{
		Kind:          models.MovementPlanFloor,
		ReferenceType: "subscription",
		ReferenceID:   subscriptionID,
		Description:   fmt.Sprintf("Créditos mínimos del plan %s", plan),
	}
}

func (s *SubscriptionService) synced(hooks *afterCommit, accountID uuid.UUID, eventType string, sub *models.Subscription) {
	snapshot := *sub
	hooks.add(func(ctx context.Context) {
		log.Info().
			Str("account_id", accountID.String()).
			Str("event_type", eventType).
			Str("plan", string(snapshot.Plan)).
			Str("status", snapshot.Status).
			Msg("💳 Subscription synced")
		s.auditor.Record(ctx, audit.Entry{
			AccountID: accountID,
			Action:    audit.ActionSubscriptionSynced,
			Entity:    "subscription",
			EntityID:  snapshot.StripeSubscriptionID,
			Metadata: map[string]interface{}{
				"event_type": eventType,
				"plan":       snapshot.Plan,
				"status":     snapshot.Status,
			},
		})
	})
}

// CreateCheckoutSession starts a hosted checkout for plan and interval
func (s *SubscriptionService) CreateCheckoutSession(ctx context.Context, accountID uuid.UUID, rawPlan, interval string) (*payment.CheckoutResult, error) {
	plan, ok := paidPlan(rawPlan)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if interval == "" {
		interval = models.IntervalMonth
	}
	priceID := s.prices.Lookup(plan, interval)
	if priceID == "" {
		return nil, ErrInvalidPlan
	}

	profile, err := s.store.Profiles().GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	req := payment.CheckoutRequest{
		AccountID:  accountID,
		Email:      profile.Email,
		PriceID:    priceID,
		Plan:       string(plan),
		SuccessURL: s.appBaseURL + "/dashboard/billing?checkout=success",
		CancelURL:  s.appBaseURL + "/dashboard/billing?checkout=cancel",
	}
	if profile.StripeCustomerID != nil {
		req.CustomerID = *profile.StripeCustomerID
	}
	return s.gateway.CreateCheckout(ctx, req)
}

// CreatePortalSession returns the billing portal URL of an existing customer
func (s *SubscriptionService) CreatePortalSession(ctx context.Context, accountID uuid.UUID) (string, error) {
	profile, err := s.store.Profiles().GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.StripeCustomerID == nil || *profile.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}
	return s.gateway.CreatePortal(ctx, *profile.StripeCustomerID, s.appBaseURL+"/dashboard/billing")
}

// GetSubscription returns the plan assignment of accountID, nil if it never subscribed
func (s *SubscriptionService) GetSubscription(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions().GetByAccount(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}
