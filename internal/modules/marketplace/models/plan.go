package models

import "strings"

// Plan is a subscription plan identifier
type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// ParsePlan normalises a plan tag coming from metadata or user input
func ParsePlan(raw string) (Plan, bool) {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanFree:
		return PlanFree, true
	case PlanBasic:
		return PlanBasic, true
	case PlanPro:
		return PlanPro, true
	}
	return "", false
}

// IsPaid reports whether the plan comes from a paid subscription
func (p Plan) IsPaid() bool {
	return p == PlanBasic || p == PlanPro
}

// Billing intervals
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)
