package payment

import (
	"github.com/presupuestalo/marketplace-be/internal/shared/config"
	"github.com/rs/zerolog/log"
)

// NewGateway creates a payment gateway based on configuration
func NewGateway(cfg *config.Config) Gateway {
	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		log.Warn().Msg("⚠️ STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET missing, billing disabled")
		return NewDisabledGateway()
	}

	log.Info().Msg("💳 Using Stripe payment gateway")
	return NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
}
