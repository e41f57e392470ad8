package queue

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/model"
)

type Producer struct {
	client *redis.Client
	cfg    *config.Config
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) EnqueueImportJob(ctx context.Context, msg model.ImportJobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.cfg.Redis.ImportQueue, data).Err()
}
