package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/export"
	"github.com/presupuestalo/marketplace-be/internal/core/metrics"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/repositories"
)

// Balance is the credit position of an account
type Balance struct {
	AccountID      uuid.UUID `json:"account_id"`
	Balance        int       `json:"balance"`
	PurchasedTotal int       `json:"purchased_total"`
	SpentTotal     int       `json:"spent_total"`
}

func balanceOf(accountID uuid.UUID, row *models.CreditBalance) Balance {
	if row == nil {
		return Balance{AccountID: accountID}
	}
	return Balance{
		AccountID:      accountID,
		Balance:        row.CreditsBalance,
		PurchasedTotal: row.CreditsPurchasedTotal,
		SpentTotal:     row.CreditsSpentTotal,
	}
}

// Movement describes why a balance changes; it becomes the journal row
type Movement struct {
	Kind          models.MovementKind
	ReferenceType string
	ReferenceID   string
	Description   string
}

// LedgerService owns the credit balance of every account
type LedgerService struct {
	store    repositories.Store
	exporter *export.Service
	now      func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store repositories.Store, exporter *export.Service) *LedgerService {
	return &LedgerService{store: store, exporter: exporter, now: time.Now}
}

// GetBalance reads the balance; an account without a row has zero credits
func (s *LedgerService) GetBalance(ctx context.Context, accountID uuid.UUID) (Balance, error) {
	return getBalance(ctx, s.store, accountID)
}

// Credit adds amount to the balance and the purchased total
func (s *LedgerService) Credit(ctx context.Context, accountID uuid.UUID, amount int, mv Movement) (Balance, error) {
	var out Balance
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		out, err = creditTx(ctx, tx, hooks, accountID, amount, mv)
		return err
	})
	return out, err
}

// Debit removes amount if the balance covers it. Otherwise it returns
// ErrInsufficientCredits and the balance is untouched.
func (s *LedgerService) Debit(ctx context.Context, accountID uuid.UUID, amount int, mv Movement) (Balance, error) {
	var out Balance
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		out, err = debitTx(ctx, tx, hooks, accountID, amount, mv)
		return err
	})
	return out, err
}

// EnsureMinimum raises the balance to floor when it is lower. A higher
// balance is never reduced and repeated calls add nothing.
func (s *LedgerService) EnsureMinimum(ctx context.Context, accountID uuid.UUID, floor int, mv Movement) (Balance, error) {
	var out Balance
	err := inTx(ctx, s.store, func(tx repositories.Store, hooks *afterCommit) error {
		var err error
		out, err = ensureMinimumTx(ctx, tx, hooks, accountID, floor, mv)
		return err
	})
	return out, err
}

// History returns the latest journal rows, newest first
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.store.Credits().ListTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	return entries, nil
}

// ExportStatement renders the balance and the full journal as XLSX or PDF
func (s *LedgerService) ExportStatement(ctx context.Context, accountID uuid.UUID, format export.Format) (*export.File, error) {
	profile, err := s.store.Profiles().GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	balance, err := s.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Credits().ListTransactions(ctx, accountID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	statement := &export.Statement{
		AccountName:    profile.DisplayName(),
		Email:          profile.Email,
		Balance:        balance.Balance,
		PurchasedTotal: balance.PurchasedTotal,
		SpentTotal:     balance.SpentTotal,
		GeneratedAt:    s.now(),
	}
	for _, e := range entries {
		statement.Entries = append(statement.Entries, export.StatementEntry{
			At:           e.CreatedAt,
			Kind:         string(e.Kind),
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			Description:  e.Description,
		})
	}

	return s.exporter.Export(statement.Document(), format)
}

func getBalance(ctx context.Context, store repositories.Store, accountID uuid.UUID) (Balance, error) {
	row, err := store.Credits().Get(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return balanceOf(accountID, nil), nil
	}
	if err != nil {
		return Balance{}, fmt.Errorf("failed to get balance: %w", err)
	}
	return balanceOf(accountID, row), nil
}

func creditTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, accountID uuid.UUID, amount int, mv Movement) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	row, err := tx.Credits().Add(ctx, accountID, amount)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to credit account: %w", err)
	}
	if err := journal(ctx, tx, hooks, accountID, amount, row.CreditsBalance, mv); err != nil {
		return Balance{}, err
	}
	return balanceOf(accountID, row), nil
}

func debitTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, accountID uuid.UUID, amount int, mv Movement) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	row, err := tx.Credits().Deduct(ctx, accountID, amount)
	if errors.Is(err, repositories.ErrInsufficientBalance) {
		return Balance{}, ErrInsufficientCredits
	}
	if err != nil {
		return Balance{}, fmt.Errorf("failed to debit account: %w", err)
	}
	if err := journal(ctx, tx, hooks, accountID, -amount, row.CreditsBalance, mv); err != nil {
		return Balance{}, err
	}
	return balanceOf(accountID, row), nil
}

func ensureMinimumTx(ctx context.Context, tx repositories.Store, hooks *afterCommit, accountID uuid.UUID, floor int, mv Movement) (Balance, error) {
	if floor <= 0 {
		return getBalance(ctx, tx, accountID)
	}
	row, raised, err := tx.Credits().RaiseTo(ctx, accountID, floor)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to apply credit floor: %w", err)
	}
	if raised > 0 {
		if err := journal(ctx, tx, hooks, accountID, raised, row.CreditsBalance, mv); err != nil {
			return Balance{}, err
		}
	}
	return balanceOf(accountID, row), nil
}

func journal(ctx context.Context, tx repositories.Store, hooks *afterCommit, accountID uuid.UUID, amount, balanceAfter int, mv Movement) error {
	entry := &models.CreditTransaction{
		AccountID:     accountID,
		Kind:          mv.Kind,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		ReferenceType: mv.ReferenceType,
		ReferenceID:   mv.ReferenceID,
		Description:   mv.Description,
	}
	if err := tx.Credits().RecordTransaction(ctx, entry); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}

	hooks.add(func(context.Context) {
		moved := amount
		if moved < 0 {
			moved = -moved
		}
		metrics.CreditMovements.WithLabelValues(string(mv.Kind)).Inc()
		metrics.CreditsMoved.WithLabelValues(string(mv.Kind)).Add(float64(moved))
	})
	return nil
}
