package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Store groups the marketplace repositories. Repositories obtained from the
// Store passed to a Transaction callback share that transaction.
type Store interface {
	Profiles() ProfileRepo
	Credits() CreditRepo
	Subscriptions() SubscriptionRepo
	Referrals() ReferralRepo
	Leads() LeadRepo
	Interactions() InteractionRepo
	Claims() ClaimRepo
	WebhookEvents() WebhookEventRepo

	// Transaction runs fn atomically. Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by gorm
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Profiles() ProfileRepo           { return &profileRepo{db: s.db} }
func (s *gormStore) Credits() CreditRepo             { return &creditRepo{db: s.db} }
func (s *gormStore) Subscriptions() SubscriptionRepo { return &subscriptionRepo{db: s.db} }
func (s *gormStore) Referrals() ReferralRepo         { return &referralRepo{db: s.db} }
func (s *gormStore) Leads() LeadRepo                 { return &leadRepo{db: s.db} }
func (s *gormStore) Interactions() InteractionRepo   { return &interactionRepo{db: s.db} }
func (s *gormStore) Claims() ClaimRepo               { return &claimRepo{db: s.db} }
func (s *gormStore) WebhookEvents() WebhookEventRepo { return &webhookEventRepo{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// translate maps gorm errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// affected turns a zero-row update into ErrNotFound
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
