package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/audit"
	"github.com/presupuestalo/marketplace-be/internal/core/notification"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const referralCodeAttempts = 5

// RewardResult describes the outcome of a referral conversion
type RewardResult struct {
	Granted    bool      `json:"granted"`
	ReferralID uuid.UUID `json:"referral_id,omitempty"`
	ReferrerID uuid.UUID `json:"referrer_id,omitempty"`
	Credits    int       `json:"credits"`
	// Reason explains why nothing was granted
	Reason string `json:"reason,omitempty"`
}

// ReferralOverview is what an account sees on its referral page
type ReferralOverview struct {
	Code         string                  `json:"code"`
	ShareURL     string                  `json:"share_url"`
	Referrals    []models.Referral       `json:"referrals"`
	Rewards      []models.ReferralReward `json:"rewards"`
	TotalCredits int                     `json:"total_credits"`
	ReferredBy   *models.Referral        `json:"referred_by,omitempty"`
}

// ReferralService runs the referral program: codes, relationships and rewards
type ReferralService struct {
	store      repositories.Store
	policy     Policy
	notifier   Notifier
	auditor    Auditor
	appBaseURL string

	now     func() time.Time
	newCode func() string
}

// NewReferralService creates a new referral service
func NewReferralService(store repositories.Store, policy Policy, notifier Notifier, auditor Auditor, appBaseURL string) *ReferralService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &ReferralService{
		store:      store,
		policy:     policy,
		notifier:   notifier,
		auditor:    auditor,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		now:        time.Now,
		newCode:    randomReferralCode,
	}
}

func randomReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// GrantReferralRewards credits the referrer and the referred account when
// referredID converts to a paid plan. Granting twice is a no-op.
func (s *ReferralService) GrantReferralRewards(ctx context.Context, referredID uuid.UUID, plan models.Plan) (*RewardResult, error) {
	var result *RewardResult
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		result, err = s.grantTx(ctx, tx, hooks, referredID, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ReferralService) grantTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, referredID uuid.UUID, plan models.Plan) (*RewardResult, error) {
	if !plan.IsPaid() {
		return &RewardResult{Reason: "plan_not_eligible"}, nil
	}

	referral, err := tx.Referrals().FindOpenByReferred(ctx, referredID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &RewardResult{Reason: "no_open_referral"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}

	credits := s.policy.Reward(plan)
	if credits <= 0 {
		return &RewardResult{ReferralID: referral.ID, Reason: "no_reward_for_plan"}, nil
	}

	now := s.now()
	converted, err := tx.Referrals().Transition(ctx, referral.ID, repositories.ReferralTransition{
		From: []models.ReferralStatus{models.ReferralPending, models.ReferralPhoneVerified},
		To:   models.ReferralConverted,
		Plan: plan,
		At:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert referral: %w", err)
	}
	if !converted {
		// Another delivery got here first
		return &RewardResult{ReferralID: referral.ID, Reason: "already_converted"}, nil
	}

	reward := &models.ReferralReward{
		ReferralID: referral.ID,
		AccountID:  referral.ReferrerID,
		RewardType: models.RewardTypeReferrer,
		Credits:    credits,
		Status:     models.RewardPending,
	}
	if err := tx.Referrals().CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("failed to create referral reward: %w", err)
	}

	mv := Movement{
		Kind:          models.MovementReferralBonus,
		ReferenceType: "referral",
		ReferenceID:   referral.ID.String(),
	}
	mv.Description = "Bono por invitar a un profesional"
	if _, err := creditTx(ctx, tx, hooks, referral.ReferrerID, credits, mv); err != nil {
		return nil, err
	}
	mv.Description = "Bono de bienvenida por invitación"
	if _, err := creditTx(ctx, tx, hooks, referredID, credits, mv); err != nil {
		return nil, err
	}

	if err := tx.Referrals().MarkRewardGranted(ctx, reward.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark reward granted: %w", err)
	}
	rewarded, err := tx.Referrals().Transition(ctx, referral.ID, repositories.ReferralTransition{
		From: []models.ReferralStatus{models.ReferralConverted},
		To:   models.ReferralRewarded,
		At:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark referral rewarded: %w", err)
	}
	if !rewarded {
		return nil, fmt.Errorf("referral %s left converted state mid-transaction", referral.ID)
	}

	referrerID := referral.ReferrerID
	hooks.add(func(ctx context.Context) {
		log.Info().
			Str("referral_id", referral.ID.String()).
			Str("referrer_id", referrerID.String()).
			Str("referred_id", referredID.String()).
			Str("plan", string(plan)).
			Int("credits", credits).
			Msg("🎁 Referral reward granted")

		s.notifier.Notify(ctx, referrerID, notification.Notification{
			Kind:    notification.KindReferralReward,
			Title:   fmt.Sprintf("Has ganado %d créditos", credits),
			Message: fmt.Sprintf("Un profesional que invitaste se ha suscrito al plan %s.", plan),
			Data: map[string]string{
				"credits":     strconv.Itoa(credits),
				"plan":        string(plan),
				"referral_id": referral.ID.String(),
			},
		})
		s.auditor.Record(ctx, audit.Entry{
			AccountID:   referrerID,
			Action:      audit.ActionReferralRewarded,
			Entity:      "referral",
			EntityID:    referral.ID.String(),
			Description: "Referral converted and rewarded",
			Metadata: map[string]interface{}{
				"referred_id": referredID.String(),
				"plan":        plan,
				"credits":     credits,
			},
		})
	})

	return &RewardResult{
		Granted:    true,
		ReferralID: referral.ID,
		ReferrerID: referrerID,
		Credits:    credits,
	}, nil
}

// GetOrCreateCode returns the account's referral code, assigning one on first use
func (s *ReferralService) GetOrCreateCode(ctx context.Context, accountID uuid.UUID) (string, error) {
	profile, err := s.store.Profiles().GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.ReferralCode != nil && *profile.ReferralCode != "" {
		return *profile.ReferralCode, nil
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code := s.newCode()
		err := s.store.Profiles().SetReferralCode(ctx, accountID, code)
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, repositories.ErrDuplicate):
			continue
		case errors.Is(err, repositories.ErrNotFound):
			// A concurrent request assigned one
			profile, err := s.store.Profiles().GetByID(ctx, accountID)
			if err != nil {
				return "", fmt.Errorf("failed to reload profile: %w", err)
			}
			if profile.ReferralCode != nil {
				return *profile.ReferralCode, nil
			}
		default:
			return "", fmt.Errorf("failed to set referral code: %w", err)
		}
	}
	return "", fmt.Errorf("could not allocate a unique referral code after %d attempts", referralCodeAttempts)
}

// ApplyCode links referredID to the owner of code
func (s *ReferralService) ApplyCode(ctx context.Context, referredID uuid.UUID, code string) (*models.Referral, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidReferralCode
	}

	referrer, err := s.store.Profiles().GetByReferralCode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	if referrer.ID == referredID {
		return nil, ErrSelfReferral
	}

	referred, err := s.store.Profiles().GetByID(ctx, referredID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if referred.Plan.IsPaid() {
		return nil, ErrReferralNotEligible
	}

	referral := &models.Referral{
		ReferrerID:   referrer.ID,
		ReferredID:   referredID,
		ReferralCode: code,
		Status:       models.ReferralPending,
	}
	if err := s.store.Referrals().Create(ctx, referral); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyReferred
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:   &referredID,
		AccountID: referrer.ID,
		Action:    audit.ActionReferralApplied,
		Entity:    "referral",
		EntityID:  referral.ID.String(),
		Metadata:  map[string]interface{}{"referred_id": referredID.String(), "code": code},
	})
	return referral, nil
}

// MarkPhoneVerified records that the referred account verified its phone
func (s *ReferralService) MarkPhoneVerified(ctx context.Context, actorID, referredID uuid.UUID) (*models.Referral, error) {
	referral, err := s.store.Referrals().GetByReferred(ctx, referredID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrReferralNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral: %w", err)
	}

	switch referral.Status {
	case models.ReferralPhoneVerified:
		return referral, nil
	case models.ReferralPending:
	default:
		return nil, ErrReferralNotOpen
	}

	ok, err := s.store.Referrals().Transition(ctx, referral.ID, repositories.ReferralTransition{
		From: []models.ReferralStatus{models.ReferralPending},
		To:   models.ReferralPhoneVerified,
		At:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update referral: %w", err)
	}
	if !ok {
		return nil, ErrReferralNotOpen
	}
	referral.Status = models.ReferralPhoneVerified

	s.auditor.Record(ctx, audit.Entry{
		ActorID:   &actorID,
		AccountID: referral.ReferrerID,
		Action:    audit.ActionPhoneVerified,
		Entity:    "referral",
		EntityID:  referral.ID.String(),
	})
	return referral, nil
}

// Overview returns the code, share link, relationships and rewards of accountID
func (s *ReferralService) Overview(ctx context.Context, accountID uuid.UUID) (*ReferralOverview, error) {
	code, err := s.GetOrCreateCode(ctx, accountID)
	if err != nil {
		return nil, err
	}

	referrals, err := s.store.Referrals().ListByReferrer(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	rewards, err := s.store.Referrals().ListRewardsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral rewards: %w", err)
	}

	overview := &ReferralOverview{
		Code:      code,
		ShareURL:  s.shareURL(code),
		Referrals: referrals,
		Rewards:   rewards,
	}
	for _, r := range rewards {
		if r.Status == models.RewardGranted {
			overview.TotalCredits += r.Credits
		}
	}

	referredBy, err := s.store.Referrals().GetByReferred(ctx, accountID)
	switch {
	case err == nil:
		overview.ReferredBy = referredBy
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load referral: %w", err)
	}
	return overview, nil
}

// ShareQR renders the share link of accountID as a PNG QR code
func (s *ReferralService) ShareQR(ctx context.Context, accountID uuid.UUID) ([]byte, error) {
	code, err := s.GetOrCreateCode(ctx, accountID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.shareURL(code), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// AbandonStale closes relationships still open after olderThan
func (s *ReferralService) AbandonStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("abandon threshold must be positive, got %s", olderThan)
	}
	now := s.now()
	n, err := s.store.Referrals().AbandonOpenBefore(ctx, now.Add(-olderThan), now)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale referrals: %w", err)
	}
	if n > 0 {
		log.Info().Int64("count", n).Dur("older_than", olderThan).Msg("🧹 Abandoned stale referrals")
	}
	return n, nil
}

func (s *ReferralService) shareURL(code string) string {
	return s.appBaseURL + "/registro?ref=" + code
}
