package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Get(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 250)
	f.store.AddSubscription(models.Subscription{AccountID: p.ID, Plan: models.PlanBasic, Status: models.SubscriptionActive})

	out, err := f.profiles.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reformas Norte", out.Profile.CompanyName)
	assert.Equal(t, 250, out.Balance.Balance)
	require.NotNil(t, out.Subscription)
	assert.Equal(t, models.PlanBasic, out.Subscription.Plan)

	_, err = f.profiles.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProfileService_CompanyName(t *testing.T) {
	f := newFixture(t)
	p := f.professional("")

	assert.ErrorIs(t, f.profiles.RequireCompanyName(context.Background(), p.ID), ErrCompanyNameRequired)

	_, err := f.profiles.SetCompanyName(context.Background(), p.ID, "   ")
	assert.ErrorIs(t, err, ErrCompanyNameRequired)
	_, err = f.profiles.SetCompanyName(context.Background(), p.ID, strings.Repeat("x", 256))
	assert.ErrorIs(t, err, ErrCompanyNameRequired)

	updated, err := f.profiles.SetCompanyName(context.Background(), p.ID, "  Reformas   Ruiz  ")
	require.NoError(t, err)
	assert.Equal(t, "Reformas Ruiz", updated.CompanyName)
	assert.NoError(t, f.profiles.RequireCompanyName(context.Background(), p.ID))

	_, err = f.profiles.SetCompanyName(context.Background(), uuid.New(), "Otra")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
