package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Worker polls one queue with a fixed number of goroutines
type Worker struct {
	queue    *Queue
	config   WorkerConfig
	mu       sync.RWMutex
	handlers map[string]JobHandler
}

func NewWorker(queue *Queue, config WorkerConfig) *Worker {
	return &Worker{queue: queue, config: config, handlers: map[string]JobHandler{}}
}

// RegisterHandler routes jobs of handler.GetType() to handler
func (w *Worker) RegisterHandler(handler JobHandler) {
	w.mu.Lock()
	w.handlers[handler.GetType()] = handler
	w.mu.Unlock()
	log.Debug().Str("queue", w.config.Queue).Str("type", handler.GetType()).Msg("job handler registered")
}

func (w *Worker) handlerFor(jobType string) (JobHandler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[jobType]
	return h, ok
}

// Run blocks until ctx is cancelled and the in-flight jobs are done
func (w *Worker) Run(ctx context.Context) {
	log.Info().Str("queue", w.config.Queue).Int("concurrency", w.config.Concurrency).Msg("🚀 Job worker started")

	var wg sync.WaitGroup
	for n := 1; n <= w.config.Concurrency; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.poll(ctx, n)
		}(n)
	}
	wg.Wait()

	log.Info().Str("queue", w.config.Queue).Msg("job worker stopped")
}

func (w *Worker) poll(ctx context.Context, n int) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// drain what is due before waiting for the next tick
		for ctx.Err() == nil {
			found, err := w.runOne(ctx, n)
			if err != nil {
				log.Warn().Err(err).Str("queue", w.config.Queue).Int("worker", n).Msg("⚠️ Job poll failed")
				break
			}
			if !found {
				break
			}
		}
	}
}

// runOne claims and executes a single job. found is false when the queue
// had nothing due.
func (w *Worker) runOne(ctx context.Context, n int) (found bool, err error) {
	job, err := w.queue.Dequeue(ctx, w.config.Queue)
	if err != nil || job == nil {
		return false, err
	}

	logger := log.With().
		Int("worker", n).
		Str("job_id", job.ID.String()).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Logger()

	cause := w.execute(ctx, job, logger)

	// store the outcome even if shutdown cancelled ctx mid-job
	statusCtx := context.WithoutCancel(ctx)
	if cause == nil {
		if err := w.queue.MarkCompleted(statusCtx, job); err != nil {
			logger.Warn().Err(err).Msg("⚠️ Could not mark job completed")
		}
		return true, nil
	}

	if err := w.queue.MarkFailed(statusCtx, job, cause); err != nil {
		logger.Warn().Err(err).Msg("⚠️ Could not mark job failed")
	}
	return true, nil
}

func (w *Worker) execute(ctx context.Context, job *Job, logger zerolog.Logger) error {
	handler, ok := w.handlerFor(job.Type)
	if !ok {
		logger.Error().Msg("❌ No handler for job type")
		return fmt.Errorf("no handler registered for %q", job.Type)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	started := time.Now()
	if err := handler.Handle(jobCtx, job); err != nil {
		logger.Error().Err(err).Dur("took", time.Since(started)).Msg("❌ Job failed")
		return err
	}
	logger.Debug().Dur("took", time.Since(started)).Msg("job done")
	return nil
}
