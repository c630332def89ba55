package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
)

const maxCompanyName = 255

// AccountOverview is what the dashboard shows about the signed-in account
type AccountOverview struct {
	Profile      *models.Profile      `json:"profile"`
	Balance      Balance              `json:"balance"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// ProfileService reads and patches account profiles
type ProfileService struct {
	store repositories.Store
}

// NewProfileService creates a new profile service
func NewProfileService(store repositories.Store) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the profile with its balance and plan assignment
func (s *ProfileService) Get(ctx context.Context, accountID uuid.UUID) (*AccountOverview, error) {
	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	balance, err := getBalance(ctx, s.store, accountID)
	if err != nil {
		return nil, err
	}

	out := &AccountOverview{Profile: profile, Balance: balance}
	sub, err := s.store.Subscriptions().GetByAccount(ctx, accountID)
	switch {
	case err == nil:
		out.Subscription = sub
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return out, nil
}

// RequireCompanyName fails with ErrCompanyNameRequired until the account
// has a company name, which homeowners see when a lead is unlocked
func (s *ProfileService) RequireCompanyName(ctx context.Context, accountID uuid.UUID) error {
	profile, err := s.profile(ctx, accountID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(profile.CompanyName) == "" {
		return ErrCompanyNameRequired
	}
	return nil
}

// SetCompanyName stores the company name shown to homeowners
func (s *ProfileService) SetCompanyName(ctx context.Context, accountID uuid.UUID, name string) (*models.Profile, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxCompanyName {
		return nil, ErrCompanyNameRequired
	}
	err := s.store.Profiles().UpdateCompanyName(ctx, accountID, name)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update company name: %w", err)
	}
	return s.profile(ctx, accountID)
}

func (s *ProfileService) profile(ctx context.Context, accountID uuid.UUID) (*models.Profile, error) {
	profile, err := s.store.Profiles().GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}
