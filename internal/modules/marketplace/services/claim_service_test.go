package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRefund(t *testing.T) {
	tests := []struct {
		spent   int
		percent int
		want    int
	}{
		{spent: 100, percent: 75, want: 75},
		{spent: 101, percent: 50, want: 50},
		{spent: 80, percent: 75, want: 60},
		{spent: 99, percent: 75, want: 74},
		{spent: 0, percent: 75, want: 0},
		{spent: 80, percent: 0, want: 0},
	}
	for _, tt := range tests {
		p := Policy{RefundPercent: tt.percent}
		assert.Equal(t, tt.want, p.Refund(tt.spent), "spent=%d percent=%d", tt.spent, tt.percent)
	}
}

func TestClaimLead_Window(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "too early", elapsed: 10 * time.Hour, wantErr: ErrClaimWindowNotOpen},
		{name: "just before opening", elapsed: 48*time.Hour - time.Second, wantErr: ErrClaimWindowNotOpen},
		{name: "opening instant", elapsed: 48 * time.Hour},
		{name: "inside", elapsed: 72 * time.Hour},
		{name: "closing instant", elapsed: 168 * time.Hour},
		{name: "expired", elapsed: 200 * time.Hour, wantErr: ErrClaimWindowClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.professional("Reformas Norte")
			interaction := f.store.AddInteraction(models.LeadInteraction{
				ProfessionalID: p.ID, LeadID: f.lead(100).ID, CreditsSpent: 100, AccessedAt: f.now,
			})
			f.advance(tt.elapsed)

			_, err := f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{Reason: "No contesta"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, f.store.ClaimCount())
				assert.Equal(t, models.InteractionAccessed, f.store.Interaction(interaction.ID).Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 75, f.store.Balance(p.ID))
		})
	}
}

func TestClaimLead_AccessThenRefund(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 500)
	lead := f.lead(80)

	access, err := f.leads.AccessLead(context.Background(), p.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 420, f.store.Balance(p.ID))

	f.advance(50 * time.Hour)
	callAt := f.now.Add(-24 * time.Hour)
	out, err := f.claims.ClaimLead(context.Background(), p.ID, access.InteractionID, ClaimRequest{
		Reason:    "El cliente no responde",
		CallDates: []time.Time{callAt, callAt.Add(2 * time.Hour)},
		Channels:  []string{"Phone", "whatsapp", "phone"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ClaimApproved, out.Claim.Status)
	assert.Equal(t, 60, out.Claim.RefundCredits)
	assert.Equal(t, 75, out.Claim.RefundPercent)
	assert.Equal(t, 2, out.Claim.CallCount)
	assert.JSONEq(t, `["phone","whatsapp"]`, string(out.Claim.Channels))
	require.NotNil(t, out.Balance)
	assert.Equal(t, 480, out.Balance.Balance)

	assert.Equal(t, 480, f.store.Balance(p.ID))
	assert.Equal(t, models.InteractionClaimRequested, f.store.Interaction(access.InteractionID).Status)

	journal := f.store.Journal(p.ID)
	require.Len(t, journal, 2)
	assert.Equal(t, models.MovementClaimRefund, journal[1].Kind)
	assert.Equal(t, 60, journal[1].Amount)

	assert.Contains(t, f.auditor.Actions(), audit.ActionClaimFiled)
	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.KindClaimApproved, sent[0].Kind)
}

func TestClaimLead_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	interaction := f.store.AddInteraction(models.LeadInteraction{
		ProfessionalID: p.ID, LeadID: f.lead(80).ID, CreditsSpent: 80, AccessedAt: f.now,
	})
	f.advance(60 * time.Hour)

	_, err := f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{})
	require.NoError(t, err)
	_, err = f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{})
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	assert.Equal(t, 60, f.store.Balance(p.ID))
	assert.Equal(t, 1, f.store.ClaimCount())
}

func TestClaimLead_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	interaction := f.store.AddInteraction(models.LeadInteraction{
		ProfessionalID: p.ID, LeadID: f.lead(80).ID, CreditsSpent: 80, AccessedAt: f.now,
	})
	f.advance(60 * time.Hour)

	_, err := f.claims.ClaimLead(context.Background(), uuid.New(), interaction.ID, ClaimRequest{})
	assert.ErrorIs(t, err, ErrNotInteractionOwner)

	_, err = f.claims.ClaimLead(context.Background(), p.ID, uuid.New(), ClaimRequest{})
	assert.ErrorIs(t, err, ErrInteractionNotFound)

	_, err = f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{Channels: []string{"paloma"}})
	assert.ErrorIs(t, err, ErrInvalidClaimRequest)

	_, err = f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{CallCount: -1})
	assert.ErrorIs(t, err, ErrInvalidClaimRequest)

	assert.Equal(t, 0, f.store.ClaimCount())
}

func TestClaimLead_ManualReview(t *testing.T) {
	f := newFixture(t, func(p *Policy) { p.AutoApproveClaims = false })
	reviewer := uuid.New()
	p := f.professional("Reformas Norte")
	f.store.SetBalance(p.ID, 100)

	newClaim := func() *models.Claim {
		interaction := f.store.AddInteraction(models.LeadInteraction{
			ProfessionalID: p.ID, LeadID: f.lead(80).ID, CreditsSpent: 80, AccessedAt: f.now.Add(-72 * time.Hour),
		})
		out, err := f.claims.ClaimLead(context.Background(), p.ID, interaction.ID, ClaimRequest{CallCount: 4})
		require.NoError(t, err)
		assert.Equal(t, models.ClaimPending, out.Claim.Status)
		assert.Nil(t, out.Balance)
		assert.Equal(t, models.InteractionClaimRequested, f.store.Interaction(interaction.ID).Status)
		return out.Claim
	}

	approved := newClaim()
	assert.Equal(t, 100, f.store.Balance(p.ID), "pending claims do not refund")

	out, err := f.claims.ReviewClaim(context.Background(), reviewer, approved.ID, true, "Llamadas verificadas")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimApproved, out.Claim.Status)
	require.NotNil(t, out.Claim.ReviewedBy)
	assert.Equal(t, reviewer, *out.Claim.ReviewedBy)
	assert.Equal(t, 160, f.store.Balance(p.ID))

	_, err = f.claims.ReviewClaim(context.Background(), reviewer, approved.ID, true, "")
	assert.ErrorIs(t, err, ErrClaimAlreadyResolved)
	assert.Equal(t, 160, f.store.Balance(p.ID), "approval refunds once")

	rejected := newClaim()
	out, err = f.claims.ReviewClaim(context.Background(), reviewer, rejected.ID, false, "Sin pruebas")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimRejected, out.Claim.Status)
	assert.Equal(t, 160, f.store.Balance(p.ID))

	_, err = f.claims.ReviewClaim(context.Background(), reviewer, uuid.New(), true, "")
	assert.ErrorIs(t, err, ErrClaimNotFound)

	var kinds []string
	for _, n := range f.notifier.Sent() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []string{
		notification.KindClaimFiled,
		notification.KindClaimApproved,
		notification.KindClaimFiled,
		notification.KindClaimRejected,
	}, kinds)

	pending, err := f.claims.ListClaims(context.Background(), models.ClaimPending, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
	all, err := f.claims.ListClaims(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.claims.ListClaims(context.Background(), "bogus", 0)
	assert.ErrorIs(t, err, ErrInvalidClaimRequest)
}
