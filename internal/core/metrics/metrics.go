package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CreditMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presupuestalo",
			Name:      "credits_movements_total",
			Help:      "Committed credit ledger movements",
		},
		[]string{"kind"}, // plan_floor, referral_bonus, lead_access, claim_refund
	)

	CreditsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presupuestalo",
			Name:      "credits_moved_total",
			Help:      "Absolute credits moved by committed ledger movements",
		},
		[]string{"kind"},
	)

	LeadAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presupuestalo",
			Name:      "lead_access_total",
			Help:      "Lead access attempts by outcome",
		},
		[]string{"result"}, // granted, already_accessed, insufficient_credits, lead_full, error
	)

	LeadClaims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presupuestalo",
			Name:      "lead_claims_total",
			Help:      "Lead refund claims by outcome",
		},
		[]string{"result"}, // approved, pending, rejected, window_closed, window_not_open, duplicate
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presupuestalo",
			Name:      "billing_webhook_events_total",
			Help:      "Billing provider webhook deliveries by event type and outcome",
		},
		[]string{"type", "result"}, // processed, duplicate, ignored, failed, invalid_signature
	)
)
