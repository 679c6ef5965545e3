package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
)

// RedisPublisher publishes snapshots on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

func NewRedisPublisher(cfg config.RedisConfig, channel string, log logger.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return newRedisPublisher(client, channel, log), nil
}

func newRedisPublisher(client *redis.Client, channel string, log logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  log,
	}
}

func (r *RedisPublisher) Publish(ctx context.Context, data *models.DisplayData) error {
	payload, err := Encode(data)
	if err != nil {
		return err
	}

	receivers, err := r.client.Publish(ctx, r.channel, string(payload)).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.channel, err)
	}

	if receivers == 0 {
		r.logger.Warnf("No subscribers on %s", r.channel)
	}
	return nil
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
