package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/db"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/importer"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/jobstore"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/mapping"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/sheet"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/storage"
	apperrors "github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

// Enqueuer hands accepted import jobs to the worker queue.
type Enqueuer interface {
	EnqueueImportJob(ctx context.Context, msg model.ImportJobMessage) error
}

type Handler struct {
	repo     db.Repository
	store    jobstore.Store
	storage  storage.Storage
	producer Enqueuer
	decoder  *sheet.Decoder
	pipeline *importer.Pipeline
	cfg      *config.Config
	log      zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	store jobstore.Store,
	fileStorage storage.Storage,
	producer Enqueuer,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:     repo,
		store:    store,
		storage:  fileStorage,
		producer: producer,
		decoder:  sheet.NewDecoder(),
		pipeline: importer.NewPipeline(repo, store, cfg),
		cfg:      cfg,
		log:      logger.Component("api"),
	}
}

// GetImportFields returns the fields an import can target. The client falls
// back to its hardcoded copy of the same catalog when this call fails.
func (h *Handler) GetImportFields(c *gin.Context) {
	c.JSON(http.StatusOK, model.FieldsResponse{Fields: mapping.DefaultFields()})
}

// SubmitImport accepts a multipart import request: the spreadsheet, the
// company/branch/user identifiers, the confirmed column mapping, and the
// synchronous flag. Decode and mapping validation happen before anything is
// stored, so a rejected request has no partial effects.
func (h *Handler) SubmitImport(c *gin.Context) {
	companyID := c.PostForm("company_id")
	branchID := c.PostForm("branch_id")
	userID := c.PostForm("user_id")
	if companyID == "" || branchID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id, branch_id and user_id are required"})
		return
	}

	var colMapping model.ColumnMapping
	if raw := c.PostForm("column_mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &colMapping); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "column_mapping is not valid JSON"})
			return
		}
	}

	synchronous, _ := strconv.ParseBool(c.PostForm("synchronous"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "spreadsheet file is required"})
		return
	}
	if fileHeader.Size > h.cfg.Import.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the maximum import size"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	rawSheet, err := h.decoder.Decode(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := mapping.Validate(colMapping, rawSheet.Headers, mapping.DefaultFields()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if synchronous {
		h.runSynchronous(c, companyID, branchID, userID, colMapping, rawSheet)
		return
	}

	h.enqueueAsynchronous(c, companyID, branchID, userID, colMapping, rawSheet, data)
}

func (h *Handler) runSynchronous(c *gin.Context, companyID, branchID, userID string, colMapping model.ColumnMapping, rawSheet *model.RawSheet) {
	jobID := uuid.NewString()
	job := &model.ImportJob{
		ID:        jobID,
		CompanyID: companyID,
		BranchID:  branchID,
		UserID:    userID,
		Status:    model.JobStatusProcessing,
		TotalRows: len(rawSheet.Rows),
	}
	if err := h.store.Create(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to create job record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	stats, err := h.pipeline.Run(c.Request.Context(), importer.Params{
		JobID:     jobID,
		CompanyID: companyID,
		BranchID:  branchID,
		UserID:    userID,
		Mapping:   colMapping,
	}, rawSheet)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Synchronous import failed")
		if storeErr := h.store.Fail(c.Request.Context(), jobID, err.Error()); storeErr != nil {
			h.log.Error().Err(storeErr).Str("job_id", jobID).Msg("Failed to record job failure")
		}
		c.JSON(http.StatusOK, model.SubmitResponse{
			JobID:   jobID,
			Status:  model.JobStatusFailed,
			Message: err.Error(),
		})
		return
	}

	if err := h.store.Complete(c.Request.Context(), jobID, stats); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to record job completion")
	}

	c.JSON(http.StatusOK, model.SubmitResponse{
		JobID:     jobID,
		Status:    model.JobStatusCompleted,
		Success:   true,
		TotalRows: len(rawSheet.Rows),
		Stats:     stats,
	})
}

func (h *Handler) enqueueAsynchronous(c *gin.Context, companyID, branchID, userID string, colMapping model.ColumnMapping, rawSheet *model.RawSheet, data []byte) {
	ctx := c.Request.Context()

	digest := sha256.Sum256(data)
	fileDigest := hex.EncodeToString(digest[:])

	jobID := uuid.NewString()
	existingJobID, acquired, err := h.store.AcquireFileLock(ctx, companyID, fileDigest, jobID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to acquire import lock")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !acquired {
		// Same file is already mid-import; point the caller at the
		// pre-existing job so it can track that one instead.
		c.JSON(http.StatusOK, model.SubmitResponse{
			JobID:   existingJobID,
			Status:  model.JobStatusProcessing,
			Message: "an import of this file is already in progress",
		})
		return
	}

	objectKey := storage.ImportObjectKey(companyID, jobID)
	job := &model.ImportJob{
		ID:         jobID,
		CompanyID:  companyID,
		BranchID:   branchID,
		UserID:     userID,
		ObjectKey:  objectKey,
		FileDigest: fileDigest,
		Status:     model.JobStatusPending,
		TotalRows:  len(rawSheet.Rows),
	}
	if err := h.store.Create(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to create job record")
		h.releaseLock(ctx, companyID, fileDigest)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.storage.Upload(ctx, objectKey, newByteReader(data)); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to stage file")
		h.releaseLock(ctx, companyID, fileDigest)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	msg := model.ImportJobMessage{
		JobID:     jobID,
		ObjectKey: objectKey,
		CompanyID: companyID,
		BranchID:  branchID,
		UserID:    userID,
		Mapping:   colMapping,
	}
	if err := h.producer.EnqueueImportJob(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to enqueue import job")
		h.releaseLock(ctx, companyID, fileDigest)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	h.log.Info().
		Str("job_id", jobID).
		Str("company_id", companyID).
		Int("total_rows", len(rawSheet.Rows)).
		Msg("Import job enqueued")

	c.JSON(http.StatusAccepted, model.SubmitResponse{
		JobID:     jobID,
		Status:    model.JobStatusPending,
		Success:   true,
		TotalRows: len(rawSheet.Rows),
	})
}

// GetJobStatus reports one job's progress. Unknown job ids return 404: the
// job may exist in a different tenant store, which is a routing problem the
// client surfaces distinctly from a transport failure.
func (h *Handler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found in this database", "database_scope": h.cfg.App.DatabaseScope})
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, model.JobStatusResponse{
		JobID:           job.ID,
		Status:          job.Status,
		ProcessedRows:   job.ProcessedRows,
		TotalRows:       job.TotalRows,
		ProgressPercent: job.ProgressPercent(),
		Stats:           job.Stats,
		ErrorMessage:    job.ErrorMessage,
		DatabaseScope:   h.cfg.App.DatabaseScope,
	})
}

// DownloadTemplate serves the empty import template whose header row is the
// canonical field labels.
func (h *Handler) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="item-import-template.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := sheet.WriteTemplate(c.Writer, mapping.DefaultFields()); err != nil {
		h.log.Error().Err(err).Msg("Failed to write template")
	}
}

// ExportItems streams the company's catalog as a spreadsheet using the same
// header row as the template, so exports round-trip through the importer.
func (h *Handler) ExportItems(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}

	items, err := h.repo.ListItems(c.Request.Context(), companyID)
	if err != nil {
		h.log.Error().Err(err).Str("company_id", companyID).Msg("Failed to list items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="items.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := sheet.WriteItems(c.Writer, mapping.DefaultFields(), items); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export")
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        h.cfg.App.Name,
		"version":        h.cfg.App.Version,
		"database_scope": h.cfg.App.DatabaseScope,
	})
}

func (h *Handler) releaseLock(ctx context.Context, companyID, digest string) {
	if err := h.store.ReleaseFileLock(ctx, companyID, digest); err != nil {
		h.log.Warn().Err(err).Msg("Failed to release import lock")
	}
}

func newByteReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
