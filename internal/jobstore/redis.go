package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
	apperrors "github.com/JACKSON-PHARM/pharmasight-sub001/pkg/errors"
)

type RedisStore struct {
	client *redis.Client
	cfg    *config.Config
}

func NewRedisStore(client *redis.Client, cfg *config.Config) *RedisStore {
	return &RedisStore{client: client, cfg: cfg}
}

func jobKey(jobID string) string {
	return "import:job:" + jobID
}

func lockKey(companyID, digest string) string {
	return "import:inflight:" + companyID + ":" + digest
}

func (s *RedisStore) Create(ctx context.Context, job *model.ImportJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	return s.save(ctx, job)
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*model.ImportJob, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, apperrors.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

func (s *RedisStore) MarkProcessing(ctx context.Context, jobID string, totalRows int) error {
	return s.update(ctx, jobID, func(job *model.ImportJob) {
		job.Status = model.JobStatusProcessing
		job.TotalRows = totalRows
	})
}

func (s *RedisStore) UpdateProgress(ctx context.Context, jobID string, processedRows int) error {
	return s.update(ctx, jobID, func(job *model.ImportJob) {
		job.ProcessedRows = processedRows
	})
}

func (s *RedisStore) Complete(ctx context.Context, jobID string, stats *model.ImportStats) error {
	return s.update(ctx, jobID, func(job *model.ImportJob) {
		job.Status = model.JobStatusCompleted
		job.ProcessedRows = job.TotalRows
		job.Stats = stats
	})
}

func (s *RedisStore) Fail(ctx context.Context, jobID string, message string) error {
	return s.update(ctx, jobID, func(job *model.ImportJob) {
		job.Status = model.JobStatusFailed
		job.ErrorMessage = message
	})
}

func (s *RedisStore) AcquireFileLock(ctx context.Context, companyID, digest, jobID string) (string, bool, error) {
	key := lockKey(companyID, digest)
	acquired, err := s.client.SetNX(ctx, key, jobID, s.cfg.Redis.JobTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if acquired {
		return "", true, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Lock expired between SETNX and GET; treat as a fresh acquire.
		return s.AcquireFileLock(ctx, companyID, digest, jobID)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read import lock: %w", err)
	}
	return existing, false, nil
}

func (s *RedisStore) ReleaseFileLock(ctx context.Context, companyID, digest string) error {
	return s.client.Del(ctx, lockKey(companyID, digest)).Err()
}

func (s *RedisStore) save(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, s.cfg.Redis.JobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) update(ctx context.Context, jobID string, mutate func(*model.ImportJob)) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()
	return s.save(ctx, job)
}
