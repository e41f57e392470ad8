package worker

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/db"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/importer"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/jobstore"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/queue"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/sheet"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/storage"
)

// ImportWorker consumes queued import jobs: download the staged file,
// decode it, run the pipeline, record terminal status. A failed job stays
// failed with its message; the uploaded file is removed either way.
type ImportWorker struct {
	cfg        *config.Config
	store      jobstore.Store
	storage    storage.Storage
	decoder    *sheet.Decoder
	pipeline   *importer.Pipeline
	consumer   *queue.Consumer
	workerPool *WorkerPool
	log        zerolog.Logger
}

func NewImportWorker(
	cfg *config.Config,
	repo db.Repository,
	store jobstore.Store,
	fileStorage storage.Storage,
	redisClient *queue.RedisClient,
) *ImportWorker {
	return &ImportWorker{
		cfg:        cfg,
		store:      store,
		storage:    fileStorage,
		decoder:    sheet.NewDecoder(),
		pipeline:   importer.NewPipeline(repo, store, cfg),
		consumer:   queue.NewConsumer(redisClient, cfg),
		workerPool: NewWorkerPool(cfg.Import.Workers),
		log:        logger.Component("import_worker"),
	}
}

func (w *ImportWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting import worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeImportQueue(ctx, w.handleMessage)
}

func (w *ImportWorker) Stop() {
	w.log.Info().Msg("Stopping import worker")
	w.workerPool.Stop()
}

func (w *ImportWorker) handleMessage(ctx context.Context, data []byte) error {
	var msg model.ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal import job")
		return err
	}

	w.log.Info().Str("job_id", msg.JobID).Str("object_key", msg.ObjectKey).Msg("Processing import job")

	w.workerPool.Submit(func(ctx context.Context) error {
		return w.processJob(ctx, msg)
	})

	return nil
}

func (w *ImportWorker) processJob(ctx context.Context, msg model.ImportJobMessage) error {
	log := w.log.With().Str("job_id", msg.JobID).Logger()

	defer func() {
		if err := w.storage.Delete(ctx, msg.ObjectKey); err != nil {
			log.Warn().Err(err).Msg("Failed to delete staged file")
		}
	}()

	rawSheet, err := w.loadSheet(ctx, msg.ObjectKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load spreadsheet")
		return w.failJob(ctx, msg, err)
	}

	if err := w.store.MarkProcessing(ctx, msg.JobID, len(rawSheet.Rows)); err != nil {
		log.Error().Err(err).Msg("Failed to mark job processing")
		return err
	}

	stats, err := w.pipeline.Run(ctx, importer.Params{
		JobID:     msg.JobID,
		CompanyID: msg.CompanyID,
		BranchID:  msg.BranchID,
		UserID:    msg.UserID,
		Mapping:   msg.Mapping,
	}, rawSheet)
	if err != nil {
		log.Error().Err(err).Msg("Import pipeline failed")
		return w.failJob(ctx, msg, err)
	}

	if err := w.store.Complete(ctx, msg.JobID, stats); err != nil {
		log.Error().Err(err).Msg("Failed to record job completion")
		return err
	}
	w.releaseLock(ctx, msg)

	log.Info().
		Int("created", stats.ItemsCreated).
		Int("updated", stats.ItemsUpdated).
		Int("skipped", stats.ItemsSkipped).
		Int("errors", len(stats.Errors)).
		Msg("Import job completed")
	return nil
}

func (w *ImportWorker) loadSheet(ctx context.Context, objectKey string) (*model.RawSheet, error) {
	reader, err := w.storage.Download(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return w.decoder.Decode(data)
}

func (w *ImportWorker) failJob(ctx context.Context, msg model.ImportJobMessage, cause error) error {
	if err := w.store.Fail(ctx, msg.JobID, cause.Error()); err != nil {
		w.log.Error().Err(err).Str("job_id", msg.JobID).Msg("Failed to record job failure")
	}
	w.releaseLock(ctx, msg)
	return cause
}

func (w *ImportWorker) releaseLock(ctx context.Context, msg model.ImportJobMessage) {
	job, err := w.store.Get(ctx, msg.JobID)
	if err != nil || job.FileDigest == "" {
		return
	}
	if err := w.store.ReleaseFileLock(ctx, msg.CompanyID, job.FileDigest); err != nil {
		w.log.Warn().Err(err).Str("job_id", msg.JobID).Msg("Failed to release import lock")
	}
}
