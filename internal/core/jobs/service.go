package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/presupuestalo/marketplace-be/internal/core/email"
	"gorm.io/gorm"
)

// Service provides high-level job queue functionality
type Service struct {
	queue   *Queue
	mu      sync.Mutex
	workers []*Worker
}

// NewService creates a new job service
func NewService(db *gorm.DB) *Service {
	return &Service{queue: NewQueue(db)}
}

// Enqueue adds a new job to the queue
func (s *Service) Enqueue(ctx context.Context, accountID uuid.UUID, jobType string, payload interface{}, opts ...EnqueueOptions) (*Job, error) {
	var options EnqueueOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	return s.queue.Enqueue(ctx, accountID, jobType, payload, options)
}

// EnqueueEmail queues an email for delivery by the emails worker
func (s *Service) EnqueueEmail(ctx context.Context, accountID uuid.UUID, msg email.Message) error {
	_, err := s.Enqueue(ctx, accountID, TypeSendEmail, msg, EnqueueOptions{
		Queue:       QueueEmails,
		MaxAttempts: 5,
	})
	return err
}

// RegisterWorker creates and registers a worker for a queue
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...JobHandler) *Worker {
	worker := NewWorker(s.queue, config.withDefaults())
	for _, handler := range handlers {
		worker.RegisterHandler(handler)
	}

	s.mu.Lock()
	s.workers = append(s.workers, worker)
	s.mu.Unlock()
	return worker
}

// RunWorkers runs every registered worker until ctx is cancelled
func (s *Service) RunWorkers(ctx context.Context) error {
	s.mu.Lock()
	workers := append([]*Worker(nil), s.workers...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	wg.Wait()
	return nil
}

// Cleanup deletes old completed/failed jobs
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOldJobs(ctx, olderThan)
}
