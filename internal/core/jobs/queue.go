package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxBackoff = time.Hour

// Queue is the postgres-backed job table
type Queue struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Enqueue stores a pending job whose payload is payload encoded as JSON
func (q *Queue) Enqueue(ctx context.Context, accountID uuid.UUID, jobType string, payload interface{}, opts EnqueueOptions) (*Job, error) {
	opts = opts.withDefaults()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", jobType, err)
	}

	job := &Job{
		AccountID:   accountID,
		Queue:       opts.Queue,
		Type:        jobType,
		Payload:     raw,
		Status:      StatusPending,
		Priority:    opts.Priority,
		MaxAttempts: opts.MaxAttempts,
		RunAt:       opts.RunAt,
	}
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return job, nil
}

// Dequeue claims the next due job of queueName, or returns nil when there is
// none. SKIP LOCKED keeps concurrent pollers off each other's rows.
func (q *Queue) Dequeue(ctx context.Context, queueName string) (*Job, error) {
	var job Job
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := q.now()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("queue = ? AND status IN ?", queueName, []JobStatus{StatusPending, StatusRetrying}).
			Where("run_at IS NULL OR run_at <= ?", now).
			Order("priority DESC, created_at").
			First(&job).Error
		if err != nil {
			return err
		}

		job.Status = StatusProcessing
		job.StartedAt = &now
		job.Attempts++
		return tx.Model(&job).Updates(map[string]interface{}{
			"status":     job.Status,
			"started_at": now,
			"attempts":   job.Attempts,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue from %s: %w", queueName, err)
	}
	return &job, nil
}

func (q *Queue) MarkCompleted(ctx context.Context, job *Job) error {
	return q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": q.now(),
		}).Error
}

// MarkFailed stores cause and either reschedules the job with exponential
// backoff or, once its attempts are used up, fails it for good
func (q *Queue) MarkFailed(ctx context.Context, job *Job, cause error) error {
	now := q.now()
	updates := map[string]interface{}{
		"last_error": cause.Error(),
		"failed_at":  now,
		"status":     StatusFailed,
	}
	if job.Attempts < job.MaxAttempts {
		updates["status"] = StatusRetrying
		updates["run_at"] = now.Add(backoff(job.Attempts))
	}

	return q.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(updates).Error
}

// DeleteOldJobs removes finished jobs that ended before now-olderThan
func (q *Queue) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := q.now().Add(-olderThan)
	res := q.db.WithContext(ctx).
		Where("status IN ? AND COALESCE(completed_at, failed_at) < ?", []JobStatus{StatusCompleted, StatusFailed}, cutoff).
		Delete(&Job{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// backoff doubles per attempt: 2s, 4s, 8s ... capped at an hour
func backoff(attempt int) time.Duration {
	if attempt >= 12 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}
