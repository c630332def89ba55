package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusRetrying   JobStatus = "retrying"
)

// Higher runs first
type JobPriority int

const PriorityNormal JobPriority = 5

const (
	TypeSendEmail = "send_email"

	QueueDefault = "default"
	QueueEmails  = "emails"
)

// Job is a unit of best-effort work that runs after the request that
// created it has committed. AccountID is the account it concerns.
type Job struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AccountID uuid.UUID      `gorm:"type:uuid;index"`
	Queue     string         `gorm:"type:varchar(100);not null;index"`
	Type      string         `gorm:"type:varchar(100);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`

	Status   JobStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority JobPriority `gorm:"type:int;not null;default:5"`
	Attempts int         `gorm:"not null;default:0"`
	// MaxAttempts counts the first run
	MaxAttempts int `gorm:"not null;default:3"`

	RunAt       *time.Time `gorm:"index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
	LastError   string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string {
	return "jobs"
}

// JobHandler runs one job type
type JobHandler interface {
	Handle(ctx context.Context, job *Job) error
	GetType() string
}

// EnqueueOptions tune a single Enqueue call; zero values fall back to the
// defaults of the queue
type EnqueueOptions struct {
	Queue       string
	Priority    JobPriority
	MaxAttempts int
	RunAt       *time.Time
}

func (o EnqueueOptions) withDefaults() EnqueueOptions {
	if o.Queue == "" {
		o.Queue = QueueDefault
	}
	if o.Priority == 0 {
		o.Priority = PriorityNormal
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	return o
}

// WorkerConfig configures the pollers of one queue
type WorkerConfig struct {
	Queue        string
	Concurrency  int
	PollInterval time.Duration
	Timeout      time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Queue == "" {
		c.Queue = QueueDefault
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	return c
}
