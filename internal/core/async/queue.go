package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// Job is one file waiting for a pipeline run.
type Job struct {
	ID          uuid.UUID
	Path        string
	DocType     constants.DocumentType
	AllowRemote bool
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps a job with a fresh id and submission time.
func NewJob(path string, docType constants.DocumentType, allowRemote bool) Job {
	return Job{
		ID:          uuid.New(),
		Path:        path,
		DocType:     docType,
		AllowRemote: allowRemote,
		SubmittedAt: time.Now().UTC(),
	}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
