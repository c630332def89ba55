package services

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotResolved  = errors.New("billing event does not match any account")

	ErrLeadNotFound = errors.New("lead not found")
	ErrLeadClosed   = errors.New("lead is no longer open")
	ErrLeadFull     = errors.New("lead reached its maximum number of professionals")

	ErrInteractionNotFound      = errors.New("lead interaction not found")
	ErrNotInteractionOwner      = errors.New("lead interaction belongs to another professional")
	ErrInvalidInteractionStatus = errors.New("invalid interaction status")
	ErrInteractionLocked        = errors.New("lead interaction has a claim and can no longer change")

	ErrClaimWindowNotOpen   = errors.New("claim window is not open yet")
	ErrClaimWindowClosed    = errors.New("claim window has closed")
	ErrAlreadyClaimed       = errors.New("lead interaction was already claimed")
	ErrInvalidClaimRequest  = errors.New("invalid claim request")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrClaimAlreadyResolved = errors.New("claim was already resolved")

	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("cannot use your own referral code")
	ErrAlreadyReferred     = errors.New("account was already referred")
	ErrReferralNotEligible = errors.New("account already has a paid plan")
	ErrReferralNotFound    = errors.New("referral not found")
	ErrReferralNotOpen     = errors.New("referral is no longer open")

	ErrInvalidPlan         = errors.New("invalid plan or billing interval")
	ErrNoBillingAccount    = errors.New("account has no billing customer yet")
	ErrCompanyNameRequired = errors.New("company name is required")
)
