package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) referralPair(status models.ReferralStatus) (referrer, referred models.Profile, referral models.Referral) {
	referrer = f.professional("Invita SL")
	referred = f.professional("Nueva Obra SL")
	referral = f.store.AddReferral(models.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   referred.ID,
		ReferralCode: "ABCD1234",
		Status:       status,
	})
	return referrer, referred, referral
}

func TestGrantReferralRewards_CreditsBothSides(t *testing.T) {
	f := newFixture(t)
	referrer, referred, referral := f.referralPair(models.ReferralPhoneVerified)
	f.store.SetBalance(referrer.ID, 40)

	res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanPro)
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, 150, res.Credits)
	assert.Equal(t, referrer.ID, res.ReferrerID)

	assert.Equal(t, 190, f.store.Balance(referrer.ID))
	assert.Equal(t, 150, f.store.Balance(referred.ID))

	stored := f.store.Referral(referral.ID)
	assert.Equal(t, models.ReferralRewarded, stored.Status)
	assert.Equal(t, models.PlanPro, stored.ConvertedPlan)
	require.NotNil(t, stored.RewardedAt)

	rewards := f.store.Rewards()
	require.Len(t, rewards, 1)
	assert.Equal(t, models.RewardGranted, rewards[0].Status)
	assert.Equal(t, models.RewardTypeReferrer, rewards[0].RewardType)
	assert.Equal(t, referrer.ID, rewards[0].AccountID)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, referrer.ID, sent[0].AccountID)
	assert.Equal(t, notification.KindReferralReward, sent[0].Kind)
	assert.Contains(t, f.auditor.Actions(), audit.ActionReferralRewarded)
}

func TestGrantReferralRewards_SecondCallIsNoop(t *testing.T) {
	f := newFixture(t)
	referrer, referred, _ := f.referralPair(models.ReferralPending)

	_, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanBasic)
	require.NoError(t, err)

	res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanBasic)
	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.Equal(t, "no_open_referral", res.Reason)

	assert.Equal(t, 100, f.store.Balance(referrer.ID))
	assert.Equal(t, 100, f.store.Balance(referred.ID))
	assert.Len(t, f.store.Rewards(), 1)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestGrantReferralRewards_NoOps(t *testing.T) {
	t.Run("free plan", func(t *testing.T) {
		f := newFixture(t)
		_, referred, _ := f.referralPair(models.ReferralPending)

		res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanFree)
		require.NoError(t, err)
		assert.Equal(t, "plan_not_eligible", res.Reason)
		assert.Equal(t, 0, f.store.Balance(referred.ID))
	})

	t.Run("no relationship", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.referrals.GrantReferralRewards(context.Background(), uuid.New(), models.PlanPro)
		require.NoError(t, err)
		assert.Equal(t, "no_open_referral", res.Reason)
	})

	t.Run("abandoned relationship", func(t *testing.T) {
		f := newFixture(t)
		_, referred, _ := f.referralPair(models.ReferralAbandoned)
		res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanPro)
		require.NoError(t, err)
		assert.False(t, res.Granted)
	})

	t.Run("plan without reward", func(t *testing.T) {
		f := newFixture(t, func(p *Policy) { p.ReferralRewards[models.PlanBasic] = 0 })
		_, referred, referral := f.referralPair(models.ReferralPending)

		res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanBasic)
		require.NoError(t, err)
		assert.Equal(t, "no_reward_for_plan", res.Reason)
		assert.Equal(t, models.ReferralPending, f.store.Referral(referral.ID).Status)
	})
}

func TestGrantReferralRewards_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	referrer, referred, referral := f.referralPair(models.ReferralPending)
	f.store.FailOn("Credits.Add", errors.New("deadlock detected"))

	_, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanPro)
	require.Error(t, err)

	assert.Equal(t, models.ReferralPending, f.store.Referral(referral.ID).Status)
	assert.Empty(t, f.store.Rewards())
	assert.Equal(t, 0, f.store.Balance(referrer.ID))
	assert.Empty(t, f.notifier.Sent(), "no notification for a rolled back reward")

	f.store.FailOn("Credits.Add", nil)
	res, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanPro)
	require.NoError(t, err)
	assert.True(t, res.Granted)
}

func TestGetOrCreateCode_RetriesCollisions(t *testing.T) {
	f := newFixture(t)
	taken := "TAKEN001"
	f.store.AddProfile(models.Profile{Email: "other@test", ReferralCode: &taken})
	p := f.professional("Reformas Sur")

	codes := []string{taken, "FRESH002"}
	f.referrals.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	code, err := f.referrals.GetOrCreateCode(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "FRESH002", code)

	again, err := f.referrals.GetOrCreateCode(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestApplyCode(t *testing.T) {
	f := newFixture(t)
	referrer := f.professional("Invita SL")
	code, err := f.referrals.GetOrCreateCode(context.Background(), referrer.ID)
	require.NoError(t, err)

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.referrals.ApplyCode(context.Background(), uuid.New(), "NOPE")
		assert.ErrorIs(t, err, ErrInvalidReferralCode)
	})

	t.Run("own code", func(t *testing.T) {
		_, err := f.referrals.ApplyCode(context.Background(), referrer.ID, code)
		assert.ErrorIs(t, err, ErrSelfReferral)
	})

	t.Run("paid account", func(t *testing.T) {
		paid := f.store.AddProfile(models.Profile{Email: "paid@test", Plan: models.PlanPro})
		_, err := f.referrals.ApplyCode(context.Background(), paid.ID, code)
		assert.ErrorIs(t, err, ErrReferralNotEligible)
	})

	t.Run("creates pending relationship once", func(t *testing.T) {
		referred := f.professional("")
		ref, err := f.referrals.ApplyCode(context.Background(), referred.ID, "  "+strings.ToLower(code)+" ")
		require.NoError(t, err)
		assert.Equal(t, models.ReferralPending, ref.Status)
		assert.Equal(t, referrer.ID, ref.ReferrerID)

		_, err = f.referrals.ApplyCode(context.Background(), referred.ID, code)
		assert.ErrorIs(t, err, ErrAlreadyReferred)
	})
}

func TestMarkPhoneVerified(t *testing.T) {
	f := newFixture(t)
	admin := uuid.New()
	_, referred, referral := f.referralPair(models.ReferralPending)

	ref, err := f.referrals.MarkPhoneVerified(context.Background(), admin, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralPhoneVerified, ref.Status)

	// repeating is harmless
	_, err = f.referrals.MarkPhoneVerified(context.Background(), admin, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralPhoneVerified, f.store.Referral(referral.ID).Status)

	_, err = f.referrals.MarkPhoneVerified(context.Background(), admin, uuid.New())
	assert.ErrorIs(t, err, ErrReferralNotFound)

	_, rewardedReferred, _ := f.referralPair(models.ReferralRewarded)
	_, err = f.referrals.MarkPhoneVerified(context.Background(), admin, rewardedReferred.ID)
	assert.ErrorIs(t, err, ErrReferralNotOpen)
}

func TestOverviewAndShareQR(t *testing.T) {
	f := newFixture(t)
	referrer, referred, _ := f.referralPair(models.ReferralPending)
	_, err := f.referrals.GrantReferralRewards(context.Background(), referred.ID, models.PlanBasic)
	require.NoError(t, err)

	overview, err := f.referrals.Overview(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, overview.Code)
	assert.Equal(t, "https://presupuestalo.test/registro?ref="+overview.Code, overview.ShareURL)
	assert.Len(t, overview.Referrals, 1)
	assert.Equal(t, 100, overview.TotalCredits)
	assert.Nil(t, overview.ReferredBy)

	png, err := f.referrals.ShareQR(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestAbandonStale(t *testing.T) {
	f := newFixture(t)
	_, _, old := f.referralPair(models.ReferralPending)
	f.advance(100 * 24 * time.Hour)
	_, _, fresh := f.referralPair(models.ReferralPending)

	n, err := f.referrals.AbandonStale(context.Background(), f.policy.ReferralAbandonAfter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.ReferralAbandoned, f.store.Referral(old.ID).Status)
	assert.Equal(t, models.ReferralPending, f.store.Referral(fresh.ID).Status)
}

func TestAbandonStale_RequiresPositiveThreshold(t *testing.T) {
	f := newFixture(t)
	_, _, open := f.referralPair(models.ReferralPending)
	f.advance(time.Hour)

	_, err := f.referrals.AbandonStale(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, models.ReferralPending, f.store.Referral(open.ID).Status)
}

func TestPolicyFromConfig_AbandonDays(t *testing.T) {
	assert.Equal(t, 90*24*time.Hour, PolicyFromConfig(&config.Config{ReferralAbandonDays: 0}).ReferralAbandonAfter)
	assert.Equal(t, 30*24*time.Hour, PolicyFromConfig(&config.Config{ReferralAbandonDays: 30}).ReferralAbandonAfter)
}
