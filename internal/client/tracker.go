package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	apperrors "github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

// Update is one observed snapshot of a polled job.
type Update struct {
	Status        model.JobStatus
	ProcessedRows int
	TotalRows     int
	Percent       float64
	Elapsed       time.Duration
}

// Tracker polls one job on a fixed interval until a terminal state. The
// timer is re-armed only after each poll finishes, so ticks never overlap:
// a slow status call simply delays the next one.
type Tracker struct {
	client     *Client
	jobID      string
	interval   time.Duration
	maxErrors  int
	log        zerolog.Logger
	OnProgress func(Update)
}

func (c *Client) NewTracker(jobID string) *Tracker {
	return &Tracker{
		client:    c,
		jobID:     jobID,
		interval:  c.pollInterval,
		maxErrors: c.maxPollErrors,
		log:       c.log.With().Str("job_id", jobID).Logger(),
	}
}

// Track blocks until the job reaches a terminal state or the context ends.
// Terminal outcomes:
//   - completed: returns the job's stats
//   - failed: ServerReportedFailure with the backend's message
//   - 404: ErrJobNotFound immediately, no retry — the job lives in a
//     different tenant store, which polling longer will not fix
//   - repeated transport failure: UnreachableError once the consecutive
//     failure count reaches the threshold; any successful poll resets it
//
// Cancelling the context stops polling without any cancel call to the
// server; the job may keep running there, which is accepted behavior.
func (t *Tracker) Track(ctx context.Context) (*model.ImportStats, error) {
	start := time.Now()
	failures := 0
	lastStatus := 0

	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		status, httpStatus, err := t.poll(ctx)
		switch {
		case err == nil && httpStatus == http.StatusNotFound:
			t.log.Error().Msg("Job not found in the targeted database")
			return nil, apperrors.ErrJobNotFound

		case err == nil && httpStatus >= 400:
			failures++
			lastStatus = httpStatus
			t.log.Warn().Int("http_status", httpStatus).Int("consecutive_failures", failures).Msg("Job status poll failed")

		case err != nil:
			failures++
			lastStatus = 0
			t.log.Warn().Err(err).Int("consecutive_failures", failures).Msg("Job status poll failed")

		default:
			failures = 0
			update := Update{
				Status:        status.Status,
				ProcessedRows: status.ProcessedRows,
				TotalRows:     status.TotalRows,
				Percent:       status.ProgressPercent,
				Elapsed:       time.Since(start),
			}

			switch status.Status {
			case model.JobStatusCompleted:
				update.Percent = 100
				t.notify(update)
				return status.Stats, nil
			case model.JobStatusFailed:
				t.notify(update)
				return nil, apperrors.ServerReportedFailure{JobID: t.jobID, Message: status.ErrorMessage}
			default:
				// pending/processing: show progress, keep going.
				t.notify(update)
			}
		}

		if failures >= t.maxErrors {
			return nil, apperrors.UnreachableError{
				Attempts:     failures,
				BackingStore: lastStatus == http.StatusServiceUnavailable,
			}
		}

		timer.Reset(t.interval)
	}
}

// JobStatus fetches one job snapshot without entering the polling loop.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	var body model.JobStatusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/v1/import-jobs/" + jobID)
	if err != nil {
		return nil, apperrors.TransportError{Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperrors.ErrJobNotFound
	}
	if !resp.IsSuccess() {
		return nil, apperrors.TransportError{
			Err:        fmt.Errorf("job status request rejected: %s", resp.Status()),
			StatusCode: resp.StatusCode(),
		}
	}
	return &body, nil
}

func (t *Tracker) poll(ctx context.Context) (*model.JobStatusResponse, int, error) {
	var body model.JobStatusResponse
	resp, err := t.client.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/api/v1/import-jobs/" + t.jobID)
	if err != nil {
		return nil, 0, apperrors.TransportError{Err: err}
	}
	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), nil
	}
	return &body, resp.StatusCode(), nil
}

func (t *Tracker) notify(update Update) {
	if t.OnProgress != nil {
		t.OnProgress(update)
	}
}
