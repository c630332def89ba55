package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL    string
	DBMaxOpenConns int

	// Supabase signs access tokens with this HS256 secret
	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePrices        StripePrices

	// Used for checkout return URLs and referral share links
	AppBaseURL string

	EmailProvider string
	ResendAPIKey  string
	BrevoAPIKey   string
	EmailFrom     string
	EmailFromName string

	ClaimRefundPercent    int
	ClaimAutoApprove      bool
	ClaimWindowOpenHours  int
	ClaimWindowCloseHours int
	LeadMaxAccessors      int

	ReferralAbandonDays int
	JobWorkers          int
	JobRetentionDays    int
}

// StripePrices maps plan and cadence to Stripe price IDs used for checkout
type StripePrices struct {
	BasicMonthly string
	BasicYearly  string
	ProMonthly   string
	ProYearly    string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:                os.Getenv("PORT"),
		Env:                 os.Getenv("ENV"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:      getInt("DB_MAX_OPEN_CONNS", 25),
		JWTSecret:           os.Getenv("SUPABASE_JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePrices: StripePrices{
			BasicMonthly: os.Getenv("STRIPE_PRICE_BASIC_MONTHLY"),
			BasicYearly:  os.Getenv("STRIPE_PRICE_BASIC_YEARLY"),
			ProMonthly:   os.Getenv("STRIPE_PRICE_PRO_MONTHLY"),
			ProYearly:    os.Getenv("STRIPE_PRICE_PRO_YEARLY"),
		},
		AppBaseURL:    os.Getenv("APP_BASE_URL"),
		EmailProvider: os.Getenv("EMAIL_PROVIDER"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		BrevoAPIKey:   os.Getenv("BREVO_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),

		ClaimRefundPercent:    getInt("CLAIM_REFUND_PERCENT", 75),
		ClaimAutoApprove:      getBool("CLAIM_AUTO_APPROVE", true),
		ClaimWindowOpenHours:  getInt("CLAIM_WINDOW_OPEN_HOURS", 48),
		ClaimWindowCloseHours: getInt("CLAIM_WINDOW_CLOSE_HOURS", 168),
		LeadMaxAccessors:      getInt("LEAD_MAX_ACCESSORS", 3),
		ReferralAbandonDays:   getInt("REFERRAL_ABANDON_DAYS", 90),
		JobWorkers:            getInt("JOB_WORKERS", 2),
		JobRetentionDays:      getInt("JOB_RETENTION_DAYS", 14),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:3000"
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Presupuéstalo"
	}
	if cfg.ClaimRefundPercent < 0 || cfg.ClaimRefundPercent > 100 {
		log.Warn().Int("value", cfg.ClaimRefundPercent).Msg("⚠️ CLAIM_REFUND_PERCENT out of range, using 75")
		cfg.ClaimRefundPercent = 75
	}

	return cfg
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ invalid integer, using default")
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ invalid boolean, using default")
		return def
	}
	return v
}
