package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks for one tax form to be parsed.
type Job struct {
	FormID      uuid.UUID
	Force       bool // re-recognize every page and enqueue even if a job is pending
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
