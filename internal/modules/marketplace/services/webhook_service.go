package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/presupuestalo/marketplace-be/internal/core/metrics"
	"github.com/presupuestalo/marketplace-be/internal/core/payment"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// Webhook outcomes
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

// WebhookResult tells the caller what happened to a delivery
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Result    string `json:"result"`
}

// WebhookService authenticates billing deliveries and applies each event once
type WebhookService struct {
	store         repositories.Store
	gateway       payment.Gateway
	subscriptions *SubscriptionService
	now           func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(store repositories.Store, gateway payment.Gateway, subscriptions *SubscriptionService) *WebhookService {
	return &WebhookService{
		store:         store,
		gateway:       gateway,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

// errEventRecorded is a lost race on the processed marker. Unique violations
// raised while applying the event are failures, not duplicates.
var errEventRecorded = errors.New("webhook event already recorded")

// HandleStripe verifies, deduplicates and applies a Stripe delivery. The
// processed marker and every write of the event commit together, so a
// failed delivery leaves nothing behind and is safe to redeliver.
func (s *WebhookService) HandleStripe(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	ev, err := s.gateway.VerifyEvent(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		if errors.Is(err, payment.ErrInvalidSignature) {
			return WebhookResult{}, err
		}
		return WebhookResult{}, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	result := WebhookResult{EventID: ev.ID, EventType: ev.Type}
	provider := s.gateway.Name()
	logger := log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	seen, err := s.store.WebhookEvents().Exists(ctx, provider, ev.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "failed").Inc()
		return result, fmt.Errorf("failed to check webhook event: %w", err)
	}
	if seen {
		logger.Info().Msg("Webhook event already processed")
		result.Result = WebhookDuplicate
		metrics.WebhookEvents.WithLabelValues(ev.Type, WebhookDuplicate).Inc()
		return result, nil
	}

	update, err := s.subscriptions.prepare(ctx, ev)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prepare webhook event")
		metrics.WebhookEvents.WithLabelValues(ev.Type, "failed").Inc()
		return result, err
	}

	err = inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		marker := &models.WebhookEvent{
			Provider:    provider,
			EventID:     ev.ID,
			EventType:   ev.Type,
			Payload:     datatypes.JSON(ev.Object),
			ProcessedAt: s.now(),
		}
		if err := tx.WebhookEvents().Record(ctx, marker); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return errEventRecorded
			}
			return err
		}
		if update == nil {
			return nil
		}
		return s.subscriptions.applyTx(ctx, tx, hooks, update)
	})

	switch {
	case errors.Is(err, errEventRecorded):
		logger.Info().Msg("Webhook event processed concurrently")
		result.Result = WebhookDuplicate
	case err != nil:
		logger.Error().Err(err).Msg("Failed to apply webhook event")
		metrics.WebhookEvents.WithLabelValues(ev.Type, "failed").Inc()
		return result, err
	case update == nil:
		logger.Debug().Msg("Webhook event ignored")
		result.Result = WebhookIgnored
	default:
		logger.Info().Msg("Webhook event processed")
		result.Result = WebhookProcessed
	}

	metrics.WebhookEvents.WithLabelValues(ev.Type, result.Result).Inc()
	return result, nil
}
