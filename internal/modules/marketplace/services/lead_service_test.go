package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) lead(cost int) models.Lead {
	return f.store.AddLead(models.Lead{
		Title:         "Reforma integral de baño",
		ReformType:    "bano",
		Province:      "Madrid",
		City:          "Getafe",
		CreditsCost:   cost,
		ClientName:    "Lucía Gómez",
		ClientPhone:   "+34600111222",
		ClientEmail:   "lucia@example.es",
		ClientAddress: "Calle Mayor 3",
		CreatedAt:     f.now,
	})
}

func TestAccessLead_ChargesAndReveals(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)
	lead := f.lead(80)

	res, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	require.NoError(t, err)
	assert.False(t, res.AlreadyAccessed)
	assert.Equal(t, 80, res.CreditsSpent)
	assert.Equal(t, "+34600111222", res.Contact.Phone)
	assert.Equal(t, "Calle Mayor 3", res.Contact.Address)
	require.NotNil(t, res.Balance)
	assert.Equal(t, 420, res.Balance.Balance)

	assert.Equal(t, 420, f.store.Balance(p.ID))
	interactions := f.store.InteractionsFor(lead.ID)
	require.Len(t, interactions, 1)
	assert.Equal(t, models.InteractionAccessed, interactions[0].Status)
	assert.Equal(t, 80, interactions[0].CreditsSpent)
	assert.Equal(t, f.now, interactions[0].AccessedAt)

	journal := f.store.Journal(p.ID)
	require.Len(t, journal, 1)
	assert.Equal(t, models.MovementLeadAccess, journal[0].Kind)
	assert.Equal(t, -80, journal[0].Amount)
}

func TestAccessLead_RepeatIsFree(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)
	lead := f.lead(80)

	first, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	require.NoError(t, err)
	second, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	require.NoError(t, err)

	assert.True(t, second.AlreadyAccessed)
	assert.Equal(t, first.InteractionID, second.InteractionID)
	assert.Equal(t, first.Contact, second.Contact)
	require.NotNil(t, second.Balance)
	assert.Equal(t, 420, second.Balance.Balance)
	assert.Equal(t, 420, f.store.Balance(p.ID))
}

func TestAccessLead_ConcurrentDuplicatesChargeOnce(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)
	lead := f.lead(80)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]*AccessResult, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.leads.AccessLead(context.Background(), p.ID, lead.ID)
		}(i)
	}
	wg.Wait()

	charged := 0
	for i := range results {
		require.NoError(t, errs[i])
		if !results[i].AlreadyAccessed {
			charged++
		}
		assert.Equal(t, "Lucía Gómez", results[i].Contact.Name)
	}
	assert.Equal(t, 1, charged)
	assert.Equal(t, 420, f.store.Balance(p.ID))
	assert.Len(t, f.store.InteractionsFor(lead.ID), 1)
	assert.Len(t, f.store.Journal(p.ID), 1)
}

func TestAccessLead_InsufficientCredits(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 10)
	lead := f.lead(15)

	_, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 10, f.store.Balance(p.ID))
	assert.Empty(t, f.store.InteractionsFor(lead.ID), "the access record rolls back with the failed debit")
}

func TestAccessLead_Rejections(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)

	t.Run("missing lead", func(t *testing.T) {
		_, err := f.leads.AccessLead(context.Background(), p.ID, uuid.New())
		assert.ErrorIs(t, err, ErrLeadNotFound)
	})

	t.Run("closed lead", func(t *testing.T) {
		closed := f.store.AddLead(models.Lead{Title: "Cocina", CreditsCost: 40, Status: models.LeadClosed})
		_, err := f.leads.AccessLead(context.Background(), p.ID, closed.ID)
		assert.ErrorIs(t, err, ErrLeadClosed)
	})

	t.Run("lead at accessor cap", func(t *testing.T) {
		full := f.lead(40)
		for i := 0; i < 3; i++ {
			f.store.AddInteraction(models.LeadInteraction{ProfessionalID: uuid.New(), LeadID: full.ID, CreditsSpent: 40, AccessedAt: f.now})
		}
		_, err := f.leads.AccessLead(context.Background(), p.ID, full.ID)
		assert.ErrorIs(t, err, ErrLeadFull)
	})

	assert.Equal(t, 500, f.store.Balance(p.ID))
}

func TestAccessLead_FullLeadStillAnswersPreviousAccessor(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	lead := f.lead(40)
	f.store.AddInteraction(models.LeadInteraction{ProfessionalID: p.ID, LeadID: lead.ID, CreditsSpent: 40, AccessedAt: f.now})
	for i := 0; i < 2; i++ {
		f.store.AddInteraction(models.LeadInteraction{ProfessionalID: uuid.New(), LeadID: lead.ID, CreditsSpent: 40, AccessedAt: f.now})
	}

	res, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyAccessed)
}

func TestListAvailable(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	open := f.lead(40)
	f.advance(time.Minute)
	mine := f.lead(60)
	f.store.AddInteraction(models.LeadInteraction{ProfessionalID: p.ID, LeadID: mine.ID, CreditsSpent: 60, AccessedAt: f.now})
	full := f.lead(20)
	for i := 0; i < 3; i++ {
		f.store.AddInteraction(models.LeadInteraction{ProfessionalID: uuid.New(), LeadID: full.ID})
	}
	f.store.AddLead(models.Lead{Title: "Valencia", Province: "Valencia", CreditsCost: 30})

	leads, err := f.leads.ListAvailable(context.Background(), p.ID, repositories.LeadFilter{Province: "Madrid"})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	byID := map[uuid.UUID]AvailableLead{}
	for _, l := range leads {
		byID[l.ID] = l
	}
	assert.True(t, byID[mine.ID].Accessed)
	assert.Equal(t, 2, byID[mine.ID].SlotsLeft)
	assert.False(t, byID[open.ID].Accessed)
	assert.Equal(t, 3, byID[open.ID].SlotsLeft)
	assert.NotContains(t, byID, full.ID)
}

func TestMyInteractions_ClaimEligibility(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	lead := f.lead(80)
	f.store.AddInteraction(models.LeadInteraction{ProfessionalID: p.ID, LeadID: lead.ID, CreditsSpent: 80, AccessedAt: f.now})

	views, err := f.leads.MyInteractions(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].CanClaim)
	assert.Equal(t, 60, views[0].RefundableCredits)
	assert.Equal(t, f.now.Add(48*time.Hour), views[0].ClaimOpensAt)
	require.NotNil(t, views[0].Contact)
	assert.Equal(t, "lucia@example.es", views[0].Contact.Email)

	f.advance(50 * time.Hour)
	views, err = f.leads.MyInteractions(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, views[0].CanClaim)

	f.advance(200 * time.Hour)
	views, err = f.leads.MyInteractions(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, views[0].CanClaim)
}

func TestUpdateInteractionStatus(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	lead := f.lead(80)
	interaction := f.store.AddInteraction(models.LeadInteraction{ProfessionalID: p.ID, LeadID: lead.ID, CreditsSpent: 80, AccessedAt: f.now})

	_, err := f.leads.UpdateInteractionStatus(context.Background(), p.ID, interaction.ID, "claim_requested")
	assert.ErrorIs(t, err, ErrInvalidInteractionStatus)

	_, err = f.leads.UpdateInteractionStatus(context.Background(), uuid.New(), interaction.ID, "contacted")
	assert.ErrorIs(t, err, ErrNotInteractionOwner)

	_, err = f.leads.UpdateInteractionStatus(context.Background(), p.ID, uuid.New(), "contacted")
	assert.ErrorIs(t, err, ErrInteractionNotFound)

	updated, err := f.leads.UpdateInteractionStatus(context.Background(), p.ID, interaction.ID, "negotiating")
	require.NoError(t, err)
	assert.Equal(t, models.InteractionNegotiating, updated.Status)
	assert.Equal(t, models.InteractionNegotiating, f.store.Interaction(interaction.ID).Status)

	claimed := f.store.AddInteraction(models.LeadInteraction{
		ProfessionalID: p.ID, LeadID: f.lead(10).ID, Status: models.InteractionClaimRequested, AccessedAt: f.now,
	})
	_, err = f.leads.UpdateInteractionStatus(context.Background(), p.ID, claimed.ID, "won")
	assert.ErrorIs(t, err, ErrInteractionLocked)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)
	first := f.lead(80)
	second := f.lead(40)

	_, err := f.leads.AccessLead(context.Background(), p.ID, first.ID)
	require.NoError(t, err)
	res, err := f.leads.AccessLead(context.Background(), p.ID, second.ID)
	require.NoError(t, err)

	f.advance(72 * time.Hour)
	_, err = f.claims.ClaimLead(context.Background(), p.ID, res.InteractionID, ClaimRequest{CallCount: 3})
	require.NoError(t, err)

	summary, err := f.leads.Summary(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 120, summary.CreditsSpent)
	assert.Equal(t, 30, summary.CreditsRefunded)
	assert.Equal(t, 1, summary.ByStatus[models.InteractionAccessed])
	assert.Equal(t, 1, summary.ByStatus[models.InteractionClaimRequested])
	assert.Equal(t, 410, summary.Balance)
}
