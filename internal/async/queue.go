package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document submitted for processing.
type Job struct {
	ID          uuid.UUID
	Source      ingest.Source
	SubmittedAt time.Time
}

// NewJob stamps src with a job id and submission time.
func NewJob(src ingest.Source) Job {
	return Job{ID: uuid.New(), Source: src, SubmittedAt: time.Now()}
}

// Outcome is delivered once per job, after the pipeline returns.
type Outcome struct {
	Job      Job
	Result   *entity.ProcessingResult
	Err      error
	Duration time.Duration
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
