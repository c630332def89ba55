package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task is a maintenance job run on a cron schedule
type Task func(ctx context.Context) error

// Scheduler runs named maintenance tasks on cron expressions (with seconds)
type Scheduler struct {
	cron    *cron.Cron
	tasks   map[string]cron.EntryID
	tasksMu sync.RWMutex

	// timeout bounds a single task run
	timeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		tasks:   make(map[string]cron.EntryID),
		timeout: 10 * time.Minute,
	}
}

// AddTask schedules task under name, replacing an existing task with the same name.
// schedule is a cron expression with seconds, e.g. "0 0 * * * *" for hourly.
func (s *Scheduler) AddTask(name, schedule string, task Task) error {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()

	if entryID, exists := s.tasks[name]; exists {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() { s.runTask(name, task) })
	if err != nil {
		return fmt.Errorf("failed to add cron task %s: %w", name, err)
	}

	s.tasks[name] = entryID
	log.Info().Str("task", name).Str("schedule", schedule).Msg("⏰ Scheduled task")
	return nil
}

// Tasks returns the names of the scheduled tasks
func (s *Scheduler) Tasks() []string {
	s.tasksMu.RLock()
	defer s.tasksMu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits
// for running tasks to finish
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Int("tasks", len(s.Tasks())).Msg("⏰ Starting scheduler")
	s.cron.Start()

	<-ctx.Done()

	log.Info().Msg("⏰ Stopping scheduler")
	<-s.cron.Stop().Done()
	log.Info().Msg("✅ Scheduler stopped")
	return nil
}

func (s *Scheduler) runTask(name string, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", name).Interface("panic", r).Msg("❌ Scheduled task panicked")
		}
	}()

	if err := task(ctx); err != nil {
		log.Error().Err(err).Str("task", name).Msg("❌ Scheduled task failed")
		return
	}
	log.Debug().Str("task", name).Dur("took", time.Since(start)).Msg("✅ Scheduled task finished")
}
