package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage stages uploaded spreadsheets between the API and the import
// worker.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ImportObjectKey builds the staging key for an uploaded import file.
func ImportObjectKey(companyID, jobID string) string {
	return fmt.Sprintf("imports/%s/%s.xlsx", companyID, jobID)
}
