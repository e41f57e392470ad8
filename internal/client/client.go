package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	apperrors "github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

// Client talks to the import API: field discovery, submission, job
// tracking. One Client runs at most one import at a time; rapid repeated
// submissions are rejected locally instead of producing duplicate network
// calls.
type Client struct {
	http          *resty.Client
	pollInterval  time.Duration
	maxPollErrors int
	log           zerolog.Logger

	mu        sync.Mutex
	importing bool
}

func New(cfg config.ClientConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	maxPollErrors := cfg.MaxPollErrors
	if maxPollErrors <= 0 {
		maxPollErrors = 5
	}

	return &Client{
		http:          httpClient,
		pollInterval:  pollInterval,
		maxPollErrors: maxPollErrors,
		log:           logger.Component("import_client"),
	}
}

// ImportRequest is everything one import submission needs. FileName travels
// in the multipart part; File supplies the spreadsheet bytes.
type ImportRequest struct {
	FileName    string
	File        io.Reader
	CompanyID   string
	BranchID    string
	UserID      string
	Mapping     model.ColumnMapping
	Synchronous bool
}

// Result is the terminal outcome of a tracked import.
type Result struct {
	JobID     string
	Stats     *model.ImportStats
	TotalRows int
	// Message carries informational server notes, e.g. that an identical
	// file was already mid-import and the pre-existing job was tracked.
	Message string
}

type errorBody struct {
	Error string `json:"error"`
}

// FetchFields asks the backend which fields an import can target. Any
// failure falls back to the hardcoded catalog so the mapping editor always
// has something to offer.
func (c *Client) FetchFields(ctx context.Context) []model.FieldSpec {
	var body model.FieldsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/v1/import/fields")
	if err != nil || !resp.IsSuccess() || len(body.Fields) == 0 {
		c.log.Warn().Err(err).Msg("Falling back to built-in import fields")
		return mapping.DefaultFields()
	}
	return body.Fields
}

// Import runs the whole flow: validate locally, submit, and for
// asynchronous submissions poll the job to its terminal state. The
// in-flight guard is held for the full flow and cleared on every exit path.
func (c *Client) Import(ctx context.Context, req ImportRequest, onProgress func(Update)) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	submitted, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		JobID:     submitted.JobID,
		TotalRows: submitted.TotalRows,
		Message:   submitted.Message,
	}

	if submitted.Status.Terminal() {
		if submitted.Status == model.JobStatusFailed {
			return nil, apperrors.ServerReportedFailure{JobID: submitted.JobID, Message: submitted.Message}
		}
		result.Stats = submitted.Stats
		return result, nil
	}

	tracker := c.NewTracker(submitted.JobID)
	tracker.OnProgress = onProgress
	stats, err := tracker.Track(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats = stats
	return result, nil
}

// Submit sends one import request without tracking. Callers that want the
// re-entrancy guard and polling should use Import.
func (c *Client) Submit(ctx context.Context, req ImportRequest) (*model.SubmitResponse, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()
	return c.submit(ctx, req)
}

func (c *Client) submit(ctx context.Context, req ImportRequest) (*model.SubmitResponse, error) {
	if req.CompanyID == "" || req.BranchID == "" || req.UserID == "" {
		return nil, apperrors.ValidationError{Field: "company_id", Message: "company, branch and user must be configured before importing"}
	}
	if err := mapping.Validate(req.Mapping, nil, mapping.DefaultFields()); err != nil {
		return nil, err
	}
	if req.File == nil {
		return nil, apperrors.ValidationError{Field: "file", Message: "no spreadsheet selected"}
	}

	mappingJSON, err := json.Marshal(req.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column mapping: %w", err)
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "import.xlsx"
	}

	var body model.SubmitResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", fileName, req.File).
		SetFormData(map[string]string{
			"company_id":     req.CompanyID,
			"branch_id":      req.BranchID,
			"user_id":        req.UserID,
			"column_mapping": string(mappingJSON),
			"synchronous":    strconv.FormatBool(req.Synchronous),
		}).
		SetResult(&body).
		SetError(&apiErr).
		Post("/api/v1/import")
	if err != nil {
		return nil, apperrors.TransportError{Err: err}
	}
	if !resp.IsSuccess() {
		message := apiErr.Error
		if message == "" {
			message = resp.Status()
		}
		return nil, apperrors.TransportError{
			Err:        fmt.Errorf("import submission rejected: %s", message),
			StatusCode: resp.StatusCode(),
		}
	}

	if body.Message != "" {
		c.log.Info().Str("job_id", body.JobID).Msg(body.Message)
	}
	return &body, nil
}

func (c *Client) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.importing {
		return apperrors.ErrImportInProgress
	}
	c.importing = true
	return nil
}

func (c *Client) end() {
	c.mu.Lock()
	c.importing = false
	c.mu.Unlock()
}
