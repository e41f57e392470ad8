package jobstore

import (
	"context"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

// Store tracks import job state. The backend owns every transition; clients
// only observe through the status endpoint.
type Store interface {
	Create(ctx context.Context, job *model.ImportJob) error
	Get(ctx context.Context, jobID string) (*model.ImportJob, error)
	MarkProcessing(ctx context.Context, jobID string, totalRows int) error
	UpdateProgress(ctx context.Context, jobID string, processedRows int) error
	Complete(ctx context.Context, jobID string, stats *model.ImportStats) error
	Fail(ctx context.Context, jobID string, message string) error

	// AcquireFileLock guards against the same file being imported twice
	// concurrently for one company. When the lock is already held it returns
	// the job id that holds it.
	AcquireFileLock(ctx context.Context, companyID, digest, jobID string) (existingJobID string, acquired bool, err error)
	ReleaseFileLock(ctx context.Context, companyID, digest string) error
}
