package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
)

// Publisher delivers a display snapshot to the display controller's bus
type Publisher interface {
	Publish(ctx context.Context, data *models.DisplayData) error
	Close() error
}

// New builds the publisher selected by cfg.Kind
func New(cfg *config.PublisherConfig, log logger.Logger) (Publisher, error) {
	switch cfg.Kind {
	case config.PublisherMQTT:
		return NewMQTTPublisher(cfg.MQTT, cfg.Topic, logger.Component(log, "mqtt"))
	case config.PublisherKafka:
		return NewKafkaPublisher(cfg.Kafka, cfg.Topic, logger.Component(log, "kafka"))
	case config.PublisherRedis:
		return NewRedisPublisher(cfg.Redis, cfg.Topic, logger.Component(log, "redis"))
	default:
		return nil, fmt.Errorf("unknown publisher kind %q", cfg.Kind)
	}
}

// Encode serializes a snapshot into the payload shared by every transport
func Encode(data *models.DisplayData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("nothing to publish")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode display data: %w", err)
	}
	return payload, nil
}
