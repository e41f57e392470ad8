package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the backend will never change this status again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ImportJob is the server-side record of one import run.
type ImportJob struct {
	ID            string       `json:"job_id"`
	CompanyID     string       `json:"company_id"`
	BranchID      string       `json:"branch_id"`
	UserID        string       `json:"user_id"`
	ObjectKey     string       `json:"object_key"`
	FileDigest    string       `json:"file_digest"`
	Status        JobStatus    `json:"status"`
	ProcessedRows int          `json:"processed_rows"`
	TotalRows     int          `json:"total_rows"`
	Stats         *ImportStats `json:"stats,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ProgressPercent derives the displayed percentage. Completed jobs always
// report 100 even when TotalRows was never learned.
func (j *ImportJob) ProgressPercent() float64 {
	if j.Status == JobStatusCompleted {
		return 100
	}
	if j.TotalRows <= 0 {
		return 0
	}
	return float64(j.ProcessedRows) / float64(j.TotalRows) * 100
}

// RowError describes one data row the import could not apply.
type RowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportStats are the aggregate counters reported when a job completes.
type ImportStats struct {
	ItemsCreated           int        `json:"items_created"`
	ItemsUpdated           int        `json:"items_updated"`
	ItemsSkipped           int        `json:"items_skipped"`
	OpeningBalancesCreated int        `json:"opening_balances_created"`
	SuppliersCreated       int        `json:"suppliers_created"`
	Errors                 []RowError `json:"errors,omitempty"`
}

// ImportJobMessage is what the API enqueues for the worker.
type ImportJobMessage struct {
	JobID     string        `json:"job_id"`
	ObjectKey string        `json:"object_key"`
	CompanyID string        `json:"company_id"`
	BranchID  string        `json:"branch_id"`
	UserID    string        `json:"user_id"`
	Mapping   ColumnMapping `json:"column_mapping"`
}

// SubmitResponse is the body returned by the import submission endpoint.
// Synchronous submissions carry a terminal status and final stats;
// asynchronous ones carry the job id to poll.
type SubmitResponse struct {
	JobID     string       `json:"job_id,omitempty"`
	Status    JobStatus    `json:"status"`
	Success   bool         `json:"success"`
	Message   string       `json:"message,omitempty"`
	TotalRows int          `json:"total_rows,omitempty"`
	Stats     *ImportStats `json:"stats,omitempty"`
}

// JobStatusResponse is the body returned by the job status endpoint.
type JobStatusResponse struct {
	JobID           string       `json:"job_id"`
	Status          JobStatus    `json:"status"`
	ProcessedRows   int          `json:"processed_rows"`
	TotalRows       int          `json:"total_rows"`
	ProgressPercent float64      `json:"progress_percent"`
	Stats           *ImportStats `json:"stats,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	DatabaseScope   string       `json:"database_scope"`
}

// FieldsResponse is the body returned by the expected-fields endpoint.
type FieldsResponse struct {
	Fields []FieldSpec `json:"fields"`
}
