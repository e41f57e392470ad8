package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	apperrors "github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

func testClient(serverURL string) *Client {
	return New(config.ClientConfig{
		BaseURL:       serverURL,
		Timeout:       5 * time.Second,
		PollInterval:  5 * time.Millisecond,
		MaxPollErrors: 5,
	})
}

func validRequest() ImportRequest {
	return ImportRequest{
		FileName:  "stock.xlsx",
		File:      strings.NewReader("xlsx bytes"),
		CompanyID: "comp-1",
		BranchID:  "branch-1",
		UserID:    "user-1",
		Mapping:   model.ColumnMapping{"Item name*": mapping.FieldItemName},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestSubmitRejectsBeforeAnyNetworkCall(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()
	c := testClient(server.URL)

	tests := []struct {
		name   string
		mutate func(*ImportRequest)
	}{
		{"missing company", func(r *ImportRequest) { r.CompanyID = "" }},
		{"missing branch", func(r *ImportRequest) { r.BranchID = "" }},
		{"missing user", func(r *ImportRequest) { r.UserID = "" }},
		{"no file", func(r *ImportRequest) { r.File = nil }},
		{"empty mapping", func(r *ImportRequest) { r.Mapping = model.ColumnMapping{} }},
		{"mapping without item name", func(r *ImportRequest) {
			r.Mapping = model.ColumnMapping{"Price": mapping.FieldPurchasePrice}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := c.Submit(context.Background(), req)
			require.Error(t, err)
		})
	}

	assert.Equal(t, int64(0), requests.Load(), "local validation failures must not reach the network")
}

func TestSubmitSendsMultipartForm(t *testing.T) {
	var gotMapping, gotSync string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/import", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotMapping = r.FormValue("column_mapping")
		gotSync = r.FormValue("synchronous")
		assert.Equal(t, "comp-1", r.FormValue("company_id"))

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "stock.xlsx", header.Filename)

		writeJSON(t, w, http.StatusAccepted, model.SubmitResponse{
			JobID:   "job-42",
			Status:  model.JobStatusPending,
			Success: true,
		})
	}))
	defer server.Close()

	resp, err := testClient(server.URL).Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "job-42", resp.JobID)
	assert.Equal(t, "false", gotSync)

	var decoded model.ColumnMapping
	require.NoError(t, json.Unmarshal([]byte(gotMapping), &decoded))
	assert.Equal(t, mapping.FieldItemName, decoded["Item name*"])
}

func TestSubmitSurfacesServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"error": "column_mapping is not valid JSON"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Submit(context.Background(), validRequest())

	var terr apperrors.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadRequest, terr.StatusCode)
	assert.Contains(t, terr.Error(), "column_mapping is not valid JSON")
}

func TestImportSingleSubmissionUnderConcurrentCalls(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var posts atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if posts.Add(1) == 1 {
			close(entered)
			<-release
		}
		writeJSON(t, w, http.StatusOK, model.SubmitResponse{
			JobID:   "job-1",
			Status:  model.JobStatusCompleted,
			Success: true,
			Stats:   &model.ImportStats{ItemsCreated: 1},
		})
	}))
	defer server.Close()
	c := testClient(server.URL)

	done := make(chan error, 1)
	go func() {
		_, err := c.Import(context.Background(), validRequest(), nil)
		done <- err
	}()

	<-entered
	// First import is mid-flight; a second submission must bounce locally.
	_, err := c.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, apperrors.ErrImportInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), posts.Load(), "exactly one submission reaches the server")

	// Guard is released once the import finishes.
	_, err = c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
}

func TestImportSynchronousCompletionSkipsPolling(t *testing.T) {
	var gets atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			return
		}
		writeJSON(t, w, http.StatusOK, model.SubmitResponse{
			JobID:     "job-sync",
			Status:    model.JobStatusCompleted,
			Success:   true,
			TotalRows: 3,
			Stats:     &model.ImportStats{ItemsCreated: 3},
		})
	}))
	defer server.Close()

	req := validRequest()
	req.Synchronous = true
	result, err := testClient(server.URL).Import(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, "job-sync", result.JobID)
	assert.Equal(t, 3, result.Stats.ItemsCreated)
	assert.Equal(t, int64(0), gets.Load(), "terminal submit response needs no status polls")
}

func TestImportSynchronousFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, model.SubmitResponse{
			JobID:   "job-sync",
			Status:  model.JobStatusFailed,
			Message: "spreadsheet has a header row but no data rows",
		})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Import(context.Background(), validRequest(), nil)

	var failure apperrors.ServerReportedFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "job-sync", failure.JobID)
}

func TestImportTracksAsyncJobToCompletion(t *testing.T) {
	statuses := []model.JobStatusResponse{
		{JobID: "job-7", Status: model.JobStatusProcessing, ProcessedRows: 40, TotalRows: 100, ProgressPercent: 40},
		{JobID: "job-7", Status: model.JobStatusProcessing, ProcessedRows: 70, TotalRows: 100, ProgressPercent: 70},
		{JobID: "job-7", Status: model.JobStatusCompleted, ProcessedRows: 100, TotalRows: 100, ProgressPercent: 100,
			Stats: &model.ImportStats{ItemsCreated: 95, ItemsSkipped: 5}},
	}
	var polls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, http.StatusAccepted, model.SubmitResponse{
				JobID: "job-7", Status: model.JobStatusPending, Success: true,
			})
			return
		}
		require.Equal(t, "/api/v1/import-jobs/job-7", r.URL.Path)
		n := polls.Add(1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		writeJSON(t, w, http.StatusOK, statuses[idx])
	}))
	defer server.Close()

	var updates []Update
	result, err := testClient(server.URL).Import(context.Background(), validRequest(), func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.Equal(t, 95, result.Stats.ItemsCreated)
	assert.Equal(t, int64(3), polls.Load(), "polling stops at the first terminal status")

	require.Len(t, updates, 3)
	assert.Equal(t, float64(40), updates[0].Percent)
	assert.Equal(t, float64(70), updates[1].Percent)
	assert.Equal(t, float64(100), updates[2].Percent)
	assert.Equal(t, model.JobStatusCompleted, updates[2].Status)
}

func TestFetchFieldsFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/import/fields", r.URL.Path)
		writeJSON(t, w, http.StatusOK, model.FieldsResponse{
			Fields: []model.FieldSpec{{ID: "item_name", Label: "Item name*", Required: true}},
		})
	}))
	defer server.Close()

	fields := testClient(server.URL).FetchFields(context.Background())
	require.Len(t, fields, 1)
	assert.Equal(t, "item_name", fields[0].ID)
}

func TestFetchFieldsFallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // transport failure, not just a 500

	fields := testClient(server.URL).FetchFields(context.Background())
	assert.Equal(t, mapping.DefaultFields(), fields)
}
