// Package testutil provides an in-memory marketplace store and fakes of the
// external collaborators for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
)

type memData struct {
	profiles      map[uuid.UUID]models.Profile
	balances      map[uuid.UUID]models.CreditBalance
	transactions  []models.CreditTransaction
	subscriptions map[uuid.UUID]models.Subscription // by account
	referrals     map[uuid.UUID]models.Referral
	rewards       map[uuid.UUID]models.ReferralReward
	leads         map[uuid.UUID]models.Lead
	interactions  map[uuid.UUID]models.LeadInteraction
	claims        map[uuid.UUID]models.Claim
	webhookEvents map[string]models.WebhookEvent
}

func newMemData() memData {
	return memData{
		profiles:      map[uuid.UUID]models.Profile{},
		balances:      map[uuid.UUID]models.CreditBalance{},
		subscriptions: map[uuid.UUID]models.Subscription{},
		referrals:     map[uuid.UUID]models.Referral{},
		rewards:       map[uuid.UUID]models.ReferralReward{},
		leads:         map[uuid.UUID]models.Lead{},
		interactions:  map[uuid.UUID]models.LeadInteraction{},
		claims:        map[uuid.UUID]models.Claim{},
		webhookEvents: map[string]models.WebhookEvent{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (d memData) clone() memData {
	return memData{
		profiles:      cloneMap(d.profiles),
		balances:      cloneMap(d.balances),
		transactions:  append([]models.CreditTransaction(nil), d.transactions...),
		subscriptions: cloneMap(d.subscriptions),
		referrals:     cloneMap(d.referrals),
		rewards:       cloneMap(d.rewards),
		leads:         cloneMap(d.leads),
		interactions:  cloneMap(d.interactions),
		claims:        cloneMap(d.claims),
		webhookEvents: cloneMap(d.webhookEvents),
	}
}

type memCore struct {
	txMu sync.Mutex // serialises transactions
	mu   sync.Mutex // guards data and failures
	data memData

	failures map[string]error
	now      func() time.Time
}

// fail returns the error injected for op, if any
func (c *memCore) fail(op string) error {
	return c.failures[op]
}

// MemStore is a repositories.Store kept in memory. Transactions are
// serialised and roll back every write when the callback fails, which is
// enough to observe atomicity and the duplicate-access races the services
// guard against.
type MemStore struct {
	core *memCore
	inTx bool
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{core: &memCore{
		data:     newMemData(),
		failures: map[string]error{},
		now:      time.Now,
	}}
}

// SetClock replaces the clock used for created/updated timestamps
func (s *MemStore) SetClock(now func() time.Time) {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	s.core.now = now
}

// FailOn makes every call of op (e.g. "Credits.RecordTransaction") return err
// until cleared with a nil err
func (s *MemStore) FailOn(op string, err error) {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if err == nil {
		delete(s.core.failures, op)
		return
	}
	s.core.failures[op] = err
}

func (s *MemStore) Profiles() repositories.ProfileRepo           { return memProfiles{s.core} }
func (s *MemStore) Credits() repositories.CreditRepo             { return memCredits{s.core} }
func (s *MemStore) Subscriptions() repositories.SubscriptionRepo { return memSubscriptions{s.core} }
func (s *MemStore) Referrals() repositories.ReferralRepo         { return memReferrals{s.core} }
func (s *MemStore) Leads() repositories.LeadRepo                 { return memLeads{s.core} }
func (s *MemStore) Interactions() repositories.InteractionRepo   { return memInteractions{s.core} }
func (s *MemStore) Claims() repositories.ClaimRepo               { return memClaims{s.core} }
func (s *MemStore) WebhookEvents() repositories.WebhookEventRepo { return memWebhookEvents{s.core} }

func (s *MemStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.core.txMu.Lock()
	defer s.core.txMu.Unlock()

	s.core.mu.Lock()
	snapshot := s.core.data.clone()
	s.core.mu.Unlock()

	if err := fn(&MemStore{core: s.core, inTx: true}); err != nil {
		s.core.mu.Lock()
		s.core.data = snapshot
		s.core.mu.Unlock()
		return err
	}
	return nil
}

// --- seeding and inspection ---

// AddProfile stores p, assigning an id when it has none
func (s *MemStore) AddProfile(p models.Profile) models.Profile {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Plan == "" {
		p.Plan = models.PlanFree
	}
	p.CreatedAt = s.core.now()
	s.core.data.profiles[p.ID] = p
	return p
}

// SetBalance overwrites the spendable balance of accountID
func (s *MemStore) SetBalance(accountID uuid.UUID, credits int) {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	b := s.core.data.balances[accountID]
	b.AccountID = accountID
	b.CreditsBalance = credits
	s.core.data.balances[accountID] = b
}

// AddLead stores l as an open lead unless it says otherwise
func (s *MemStore) AddLead(l models.Lead) models.Lead {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = models.LeadOpen
	}
	if l.MaxAccessors == 0 {
		l.MaxAccessors = 3
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.core.now()
	}
	s.core.data.leads[l.ID] = l
	return l
}

// AddInteraction stores an access record as if the professional paid for it
func (s *MemStore) AddInteraction(i models.LeadInteraction) models.LeadInteraction {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = models.InteractionAccessed
	}
	s.core.data.interactions[i.ID] = i
	return i
}

// AddReferral stores a relationship, pending unless it says otherwise
func (s *MemStore) AddReferral(r models.Referral) models.Referral {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = models.ReferralPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.core.now()
	}
	s.core.data.referrals[r.ID] = r
	return r
}

// AddSubscription stores a plan assignment
func (s *MemStore) AddSubscription(sub models.Subscription) models.Subscription {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.core.data.subscriptions[sub.AccountID] = sub
	return sub
}

// Balance returns the spendable credits of accountID, 0 without a row
func (s *MemStore) Balance(accountID uuid.UUID) int {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.data.balances[accountID].CreditsBalance
}

// HasBalanceRow reports whether a balance row was materialised
func (s *MemStore) HasBalanceRow(accountID uuid.UUID) bool {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	_, ok := s.core.data.balances[accountID]
	return ok
}

// Journal returns the journal rows of accountID, oldest first
func (s *MemStore) Journal(accountID uuid.UUID) []models.CreditTransaction {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	var out []models.CreditTransaction
	for _, t := range s.core.data.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

// Profile returns the stored profile of id
func (s *MemStore) Profile(id uuid.UUID) models.Profile {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.data.profiles[id]
}

// Referral returns the stored relationship of id
func (s *MemStore) Referral(id uuid.UUID) models.Referral {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.data.referrals[id]
}

// Rewards returns every reward record
func (s *MemStore) Rewards() []models.ReferralReward {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	out := make([]models.ReferralReward, 0, len(s.core.data.rewards))
	for _, r := range s.core.data.rewards {
		out = append(out, r)
	}
	return out
}

// Subscription returns the plan assignment of accountID
func (s *MemStore) Subscription(accountID uuid.UUID) (models.Subscription, bool) {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	sub, ok := s.core.data.subscriptions[accountID]
	return sub, ok
}

// InteractionsFor returns the access records of leadID
func (s *MemStore) InteractionsFor(leadID uuid.UUID) []models.LeadInteraction {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	var out []models.LeadInteraction
	for _, i := range s.core.data.interactions {
		if i.LeadID == leadID {
			out = append(out, i)
		}
	}
	return out
}

// Interaction returns the stored access record of id
func (s *MemStore) Interaction(id uuid.UUID) models.LeadInteraction {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return s.core.data.interactions[id]
}

// ClaimCount returns the number of stored claims
func (s *MemStore) ClaimCount() int {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return len(s.core.data.claims)
}

// WebhookEventCount returns the number of processed markers
func (s *MemStore) WebhookEventCount() int {
	s.core.mu.Lock()
	defer s.core.mu.Unlock()
	return len(s.core.data.webhookEvents)
}

// --- profiles ---

type memProfiles struct{ c *memCore }

func (r memProfiles) find(match func(models.Profile) bool, op string) (*models.Profile, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail(op); err != nil {
		return nil, err
	}
	for _, p := range r.c.data.profiles {
		if match(p) {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool { return p.ID == id }, "Profiles.GetByID")
}

func (r memProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(p models.Profile) bool { return strings.ToLower(p.Email) == email }, "Profiles.GetByEmail")
}

func (r memProfiles) GetByStripeCustomerID(_ context.Context, customerID string) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool {
		return p.StripeCustomerID != nil && *p.StripeCustomerID == customerID
	}, "Profiles.GetByStripeCustomerID")
}

func (r memProfiles) GetByReferralCode(_ context.Context, code string) (*models.Profile, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return r.find(func(p models.Profile) bool {
		return p.ReferralCode != nil && *p.ReferralCode == code
	}, "Profiles.GetByReferralCode")
}

func (r memProfiles) update(id uuid.UUID, op string, fn func(p *models.Profile) error) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail(op); err != nil {
		return err
	}
	p, ok := r.c.data.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	p.UpdatedAt = r.c.now()
	r.c.data.profiles[id] = p
	return nil
}

func (r memProfiles) UpdatePlan(_ context.Context, id uuid.UUID, plan models.Plan) error {
	return r.update(id, "Profiles.UpdatePlan", func(p *models.Profile) error {
		p.Plan = plan
		return nil
	})
}

func (r memProfiles) UpdateStripeCustomerID(_ context.Context, id uuid.UUID, customerID string) error {
	return r.update(id, "Profiles.UpdateStripeCustomerID", func(p *models.Profile) error {
		for _, other := range r.c.data.profiles {
			if other.ID != id && other.StripeCustomerID != nil && *other.StripeCustomerID == customerID {
				return repositories.ErrDuplicate
			}
		}
		p.StripeCustomerID = &customerID
		return nil
	})
}

func (r memProfiles) UpdateCompanyName(_ context.Context, id uuid.UUID, companyName string) error {
	return r.update(id, "Profiles.UpdateCompanyName", func(p *models.Profile) error {
		p.CompanyName = companyName
		return nil
	})
}

func (r memProfiles) SetReferralCode(_ context.Context, id uuid.UUID, code string) error {
	return r.update(id, "Profiles.SetReferralCode", func(p *models.Profile) error {
		if p.ReferralCode != nil {
			return repositories.ErrNotFound
		}
		for _, other := range r.c.data.profiles {
			if other.ReferralCode != nil && *other.ReferralCode == code {
				return repositories.ErrDuplicate
			}
		}
		p.ReferralCode = &code
		return nil
	})
}

// --- credits ---

type memCredits struct{ c *memCore }

func (r memCredits) Get(_ context.Context, accountID uuid.UUID) (*models.CreditBalance, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.Get"); err != nil {
		return nil, err
	}
	b, ok := r.c.data.balances[accountID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (r memCredits) row(accountID uuid.UUID) models.CreditBalance {
	b, ok := r.c.data.balances[accountID]
	if !ok {
		b = models.CreditBalance{AccountID: accountID, CreatedAt: r.c.now()}
	}
	return b
}

func (r memCredits) Add(_ context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.Add"); err != nil {
		return nil, err
	}
	b := r.row(accountID)
	b.CreditsBalance += amount
	b.CreditsPurchasedTotal += amount
	b.UpdatedAt = r.c.now()
	r.c.data.balances[accountID] = b
	return &b, nil
}

func (r memCredits) Deduct(_ context.Context, accountID uuid.UUID, amount int) (*models.CreditBalance, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.Deduct"); err != nil {
		return nil, err
	}
	b, ok := r.c.data.balances[accountID]
	if !ok || b.CreditsBalance < amount {
		return nil, repositories.ErrInsufficientBalance
	}
	b.CreditsBalance -= amount
	b.CreditsSpentTotal += amount
	b.UpdatedAt = r.c.now()
	r.c.data.balances[accountID] = b
	return &b, nil
}

func (r memCredits) RaiseTo(_ context.Context, accountID uuid.UUID, floor int) (*models.CreditBalance, int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.RaiseTo"); err != nil {
		return nil, 0, err
	}
	b := r.row(accountID)
	raised := 0
	if b.CreditsBalance < floor {
		raised = floor - b.CreditsBalance
		b.CreditsBalance = floor
		b.UpdatedAt = r.c.now()
	}
	r.c.data.balances[accountID] = b
	return &b, raised, nil
}

func (r memCredits) RecordTransaction(_ context.Context, entry *models.CreditTransaction) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.RecordTransaction"); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = r.c.now()
	r.c.data.transactions = append(r.c.data.transactions, *entry)
	return nil
}

func (r memCredits) ListTransactions(_ context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Credits.ListTransactions"); err != nil {
		return nil, err
	}
	var out []models.CreditTransaction
	for i := len(r.c.data.transactions) - 1; i >= 0; i-- {
		t := r.c.data.transactions[i]
		if t.AccountID != accountID {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- subscriptions ---

type memSubscriptions struct{ c *memCore }

func (r memSubscriptions) GetByAccount(_ context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	sub, ok := r.c.data.subscriptions[accountID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &sub, nil
}

func (r memSubscriptions) GetByStripeSubscriptionID(_ context.Context, id string) (*models.Subscription, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Subscriptions.GetByStripeSubscriptionID"); err != nil {
		return nil, err
	}
	for _, sub := range r.c.data.subscriptions {
		if sub.StripeSubscriptionID == id {
			return &sub, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memSubscriptions) Upsert(_ context.Context, sub *models.Subscription) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Subscriptions.Upsert"); err != nil {
		return err
	}
	if existing, ok := r.c.data.subscriptions[sub.AccountID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		sub.CreatedAt = r.c.now()
	}
	sub.UpdatedAt = r.c.now()
	r.c.data.subscriptions[sub.AccountID] = *sub
	return nil
}

func (r memSubscriptions) Update(_ context.Context, sub *models.Subscription) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Subscriptions.Update"); err != nil {
		return err
	}
	if _, ok := r.c.data.subscriptions[sub.AccountID]; !ok {
		return repositories.ErrNotFound
	}
	sub.UpdatedAt = r.c.now()
	r.c.data.subscriptions[sub.AccountID] = *sub
	return nil
}

// --- referrals ---

type memReferrals struct{ c *memCore }

func (r memReferrals) Create(_ context.Context, referral *models.Referral) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	for _, existing := range r.c.data.referrals {
		if existing.ReferredID == referral.ReferredID {
			return repositories.ErrDuplicate
		}
	}
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	if referral.Status == "" {
		referral.Status = models.ReferralPending
	}
	referral.CreatedAt = r.c.now()
	referral.UpdatedAt = referral.CreatedAt
	r.c.data.referrals[referral.ID] = *referral
	return nil
}

func (r memReferrals) GetByID(_ context.Context, id uuid.UUID) (*models.Referral, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	ref, ok := r.c.data.referrals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &ref, nil
}

func (r memReferrals) GetByReferred(_ context.Context, referredID uuid.UUID) (*models.Referral, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	for _, ref := range r.c.data.referrals {
		if ref.ReferredID == referredID {
			return &ref, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memReferrals) FindOpenByReferred(_ context.Context, referredID uuid.UUID) (*models.Referral, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	for _, ref := range r.c.data.referrals {
		if ref.ReferredID == referredID && ref.Status.IsOpen() {
			return &ref, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memReferrals) ListByReferrer(_ context.Context, referrerID uuid.UUID) ([]models.Referral, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var out []models.Referral
	for _, ref := range r.c.data.referrals {
		if ref.ReferrerID == referrerID {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memReferrals) Transition(_ context.Context, id uuid.UUID, t repositories.ReferralTransition) (bool, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Referrals.Transition"); err != nil {
		return false, err
	}
	ref, ok := r.c.data.referrals[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, from := range t.From {
		if ref.Status == from {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	ref.Status = t.To
	at := t.At
	switch t.To {
	case models.ReferralConverted:
		ref.ConvertedPlan = t.Plan
		ref.ConvertedAt = &at
	case models.ReferralRewarded:
		ref.RewardedAt = &at
	}
	ref.UpdatedAt = at
	r.c.data.referrals[id] = ref
	return true, nil
}

func (r memReferrals) AbandonOpenBefore(_ context.Context, before, at time.Time) (int64, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var n int64
	for id, ref := range r.c.data.referrals {
		if ref.Status.IsOpen() && ref.CreatedAt.Before(before) {
			ref.Status = models.ReferralAbandoned
			ref.UpdatedAt = at
			r.c.data.referrals[id] = ref
			n++
		}
	}
	return n, nil
}

func (r memReferrals) CreateReward(_ context.Context, reward *models.ReferralReward) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Referrals.CreateReward"); err != nil {
		return err
	}
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	reward.CreatedAt = r.c.now()
	r.c.data.rewards[reward.ID] = *reward
	return nil
}

func (r memReferrals) MarkRewardGranted(_ context.Context, rewardID uuid.UUID, at time.Time) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	reward, ok := r.c.data.rewards[rewardID]
	if !ok {
		return repositories.ErrNotFound
	}
	reward.Status = models.RewardGranted
	reward.GrantedAt = &at
	r.c.data.rewards[rewardID] = reward
	return nil
}

func (r memReferrals) ListRewardsByAccount(_ context.Context, accountID uuid.UUID) ([]models.ReferralReward, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var out []models.ReferralReward
	for _, reward := range r.c.data.rewards {
		if reward.AccountID == accountID {
			out = append(out, reward)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- leads ---

type memLeads struct{ c *memCore }

func (r memLeads) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	lead, ok := r.c.data.leads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &lead, nil
}

func (r memLeads) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	return r.GetByID(ctx, id)
}

func (r memLeads) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Lead, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var out []models.Lead
	for _, id := range ids {
		if lead, ok := r.c.data.leads[id]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (r memLeads) ListOpen(_ context.Context, filter repositories.LeadFilter) ([]repositories.LeadListing, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	counts := map[uuid.UUID]int{}
	for _, i := range r.c.data.interactions {
		counts[i.LeadID]++
	}

	var out []repositories.LeadListing
	for _, lead := range r.c.data.leads {
		if lead.Status != models.LeadOpen || counts[lead.ID] >= lead.MaxAccessors {
			continue
		}
		if filter.Province != "" && lead.Province != filter.Province {
			continue
		}
		if filter.ReformType != "" && lead.ReformType != filter.ReformType {
			continue
		}
		out = append(out, repositories.LeadListing{Lead: lead, AccessCount: counts[lead.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// --- interactions ---

type memInteractions struct{ c *memCore }

func (r memInteractions) Create(_ context.Context, interaction *models.LeadInteraction) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Interactions.Create"); err != nil {
		return err
	}
	for _, existing := range r.c.data.interactions {
		if existing.ProfessionalID == interaction.ProfessionalID && existing.LeadID == interaction.LeadID {
			return repositories.ErrDuplicate
		}
	}
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	interaction.UpdatedAt = r.c.now()
	r.c.data.interactions[interaction.ID] = *interaction
	return nil
}

func (r memInteractions) GetByID(_ context.Context, id uuid.UUID) (*models.LeadInteraction, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	i, ok := r.c.data.interactions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &i, nil
}

func (r memInteractions) GetByProfessionalAndLead(_ context.Context, professionalID, leadID uuid.UUID) (*models.LeadInteraction, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	for _, i := range r.c.data.interactions {
		if i.ProfessionalID == professionalID && i.LeadID == leadID {
			return &i, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memInteractions) CountByLead(_ context.Context, leadID uuid.UUID) (int64, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var n int64
	for _, i := range r.c.data.interactions {
		if i.LeadID == leadID {
			n++
		}
	}
	return n, nil
}

func (r memInteractions) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]models.LeadInteraction, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var out []models.LeadInteraction
	for _, i := range r.c.data.interactions {
		if i.ProfessionalID == professionalID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccessedAt.After(out[j].AccessedAt) })
	return out, nil
}

func (r memInteractions) UpdateStatus(_ context.Context, id uuid.UUID, status models.InteractionStatus) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Interactions.UpdateStatus"); err != nil {
		return err
	}
	i, ok := r.c.data.interactions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	i.Status = status
	i.UpdatedAt = r.c.now()
	r.c.data.interactions[id] = i
	return nil
}

// --- claims ---

type memClaims struct{ c *memCore }

func (r memClaims) Create(_ context.Context, claim *models.Claim) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("Claims.Create"); err != nil {
		return err
	}
	for _, existing := range r.c.data.claims {
		if existing.InteractionID == claim.InteractionID {
			return repositories.ErrDuplicate
		}
	}
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	claim.CreatedAt = r.c.now()
	claim.UpdatedAt = claim.CreatedAt
	r.c.data.claims[claim.ID] = *claim
	return nil
}

func (r memClaims) GetByID(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	claim, ok := r.c.data.claims[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &claim, nil
}

func (r memClaims) sorted(match func(models.Claim) bool) []models.Claim {
	var out []models.Claim
	for _, c := range r.c.data.claims {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memClaims) List(_ context.Context, status string, limit int) ([]models.Claim, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	out := r.sorted(func(c models.Claim) bool { return status == "" || c.Status == status })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memClaims) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]models.Claim, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.sorted(func(c models.Claim) bool { return c.ProfessionalID == professionalID }), nil
}

func (r memClaims) Resolve(_ context.Context, id uuid.UUID, res repositories.ClaimResolution) (bool, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	claim, ok := r.c.data.claims[id]
	if !ok || claim.Status != models.ClaimPending {
		return false, nil
	}
	at := res.At
	claim.Status = res.Status
	claim.ReviewedBy = res.ReviewerID
	claim.ReviewNotes = res.Notes
	claim.ResolvedAt = &at
	claim.UpdatedAt = at
	r.c.data.claims[id] = claim
	return true, nil
}

// --- webhook events ---

type memWebhookEvents struct{ c *memCore }

func (r memWebhookEvents) Exists(_ context.Context, provider, eventID string) (bool, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	_, ok := r.c.data.webhookEvents[provider+"/"+eventID]
	return ok, nil
}

func (r memWebhookEvents) Record(_ context.Context, event *models.WebhookEvent) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.fail("WebhookEvents.Record"); err != nil {
		return err
	}
	key := event.Provider + "/" + event.EventID
	if _, ok := r.c.data.webhookEvents[key]; ok {
		return repositories.ErrDuplicate
	}
	r.c.data.webhookEvents[key] = *event
	return nil
}
