package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("CLAIM_REFUND_PERCENT", "")
	t.Setenv("CLAIM_AUTO_APPROVE", "")
	t.Setenv("LEAD_MAX_ACCESSORS", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://localhost:3000", cfg.AppBaseURL)
	assert.Equal(t, 75, cfg.ClaimRefundPercent)
	assert.True(t, cfg.ClaimAutoApprove)
	assert.Equal(t, 48, cfg.ClaimWindowOpenHours)
	assert.Equal(t, 168, cfg.ClaimWindowCloseHours)
	assert.Equal(t, 3, cfg.LeadMaxAccessors)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("APP_BASE_URL", "https://presupuestalo.com/")
	t.Setenv("CLAIM_REFUND_PERCENT", "50")
	t.Setenv("CLAIM_AUTO_APPROVE", "false")
	t.Setenv("LEAD_MAX_ACCESSORS", "not-a-number")

	cfg := LoadConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://presupuestalo.com", cfg.AppBaseURL)
	assert.Equal(t, 50, cfg.ClaimRefundPercent)
	assert.False(t, cfg.ClaimAutoApprove)
	assert.Equal(t, 3, cfg.LeadMaxAccessors)
}

func TestLoadConfigRejectsOutOfRangeRefund(t *testing.T) {
	t.Setenv("CLAIM_REFUND_PERCENT", "140")

	cfg := LoadConfig()

	assert.Equal(t, 75, cfg.ClaimRefundPercent)
}
