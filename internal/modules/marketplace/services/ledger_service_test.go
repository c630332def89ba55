package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/export"
	"github.com/presupuestalo/marketplace-be/internal/modules/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adjustment = Movement{Kind: models.MovementAdjustment, Description: "test"}

func TestLedger_GetBalanceWithoutRow(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	b, err := f.ledger.GetBalance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, Balance{AccountID: id}, b)
	assert.False(t, f.store.HasBalanceRow(id), "a read must not create the row")
}

func TestLedger_CreditCreatesRow(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	b, err := f.ledger.Credit(context.Background(), id, 100, adjustment)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Balance)
	assert.Equal(t, 100, b.PurchasedTotal)
	assert.Equal(t, 0, b.SpentTotal)

	journal := f.store.Journal(id)
	require.Len(t, journal, 1)
	assert.Equal(t, 100, journal[0].Amount)
	assert.Equal(t, 100, journal[0].BalanceAfter)
}

func TestLedger_DebitRejectsBeforeMutation(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.SetBalance(id, 10)

	_, err := f.ledger.Debit(context.Background(), id, 15, adjustment)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 10, f.store.Balance(id))
	assert.Empty(t, f.store.Journal(id))

	b, err := f.ledger.Debit(context.Background(), id, 10, adjustment)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Balance)
	assert.Equal(t, 10, b.SpentTotal)
}

func TestLedger_DebitWithoutRow(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Debit(context.Background(), uuid.New(), 1, adjustment)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestLedger_InvalidAmount(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.ledger.Credit(context.Background(), id, 0, adjustment)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.ledger.Debit(context.Background(), id, -5, adjustment)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedger_EnsureMinimum(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		floor   int
		want    int
		journal int
	}{
		{name: "higher balance is kept", start: 1000, floor: 300, want: 1000, journal: 0},
		{name: "lower balance is topped up", start: 50, floor: 300, want: 300, journal: 250},
		{name: "balance at floor is untouched", start: 300, floor: 300, want: 300, journal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := uuid.New()
			f.store.SetBalance(id, tt.start)

			b, err := f.ledger.EnsureMinimum(context.Background(), id, tt.floor, adjustment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Balance)

			journal := f.store.Journal(id)
			if tt.journal == 0 {
				assert.Empty(t, journal)
			} else {
				require.Len(t, journal, 1)
				assert.Equal(t, tt.journal, journal[0].Amount)
			}
		})
	}
}

func TestLedger_EnsureMinimumIsIdempotent(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	for i := 0; i < 2; i++ {
		b, err := f.ledger.EnsureMinimum(context.Background(), id, 300, adjustment)
		require.NoError(t, err)
		assert.Equal(t, 300, b.Balance)
	}
	assert.Len(t, f.store.Journal(id), 1)
}

func TestLedger_RollsBackWhenJournalFails(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.SetBalance(id, 40)
	f.store.FailOn("Credits.RecordTransaction", errors.New("connection reset"))

	_, err := f.ledger.Credit(context.Background(), id, 60, adjustment)
	require.Error(t, err)
	assert.Equal(t, 40, f.store.Balance(id))
}

func TestLedger_History(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	for i := 1; i <= 3; i++ {
		_, err := f.ledger.Credit(context.Background(), id, i*10, adjustment)
		require.NoError(t, err)
	}

	entries, err := f.ledger.History(context.Background(), id, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 30, entries[0].Amount, "newest first")
	assert.Equal(t, 60, entries[0].BalanceAfter)
}

func TestLedger_ExportStatement(t *testing.T) {
	f := newFixture(t)
	p := f.professional("Reformas Norte")
	_, err := f.ledger.Credit(context.Background(), p.ID, 300, Movement{Kind: models.MovementPlanFloor})
	require.NoError(t, err)

	file, err := f.ledger.ExportStatement(context.Background(), p.ID, export.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", file.Extension)
	assert.NotEmpty(t, file.Content)

	_, err = f.ledger.ExportStatement(context.Background(), uuid.New(), export.FormatPDF)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
