package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTask_ReplacesByName(t *testing.T) {
	s := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddTask("prune-jobs", "0 30 3 * * *", noop))
	require.NoError(t, s.AddTask("prune-jobs", "0 0 4 * * *", noop))
	require.NoError(t, s.AddTask("abandon-stale-referrals", "0 0 * * * *", noop))

	assert.ElementsMatch(t, []string{"prune-jobs", "abandon-stale-referrals"}, s.Tasks())
	assert.Len(t, s.cron.Entries(), 2)
}

func TestAddTask_InvalidSchedule(t *testing.T) {
	err := NewScheduler().AddTask("broken", "every hour", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunTask_SurvivesFailureAndPanic(t *testing.T) {
	s := NewScheduler()
	calls := 0

	assert.NotPanics(t, func() {
		s.runTask("failing", func(ctx context.Context) error {
			calls++
			return errors.New("db down")
		})
		s.runTask("panicking", func(ctx context.Context) error {
			calls++
			panic("boom")
		})
	})
	assert.Equal(t, 2, calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
