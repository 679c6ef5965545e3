package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"meteo-stack/internal/models"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, topic string, log logger.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return newKafkaPublisher(producer, topic, log), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    kafkaTopic(topic),
		logger:   log,
	}
}

// kafkaTopic turns a bus path such as "bus/services/x/data" into a legal
// Kafka topic name
func kafkaTopic(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

func (k *KafkaPublisher) Publish(ctx context.Context, data *models.DisplayData) error {
	payload, err := Encode(data)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to produce message to %s: %w", k.topic, err)
	}

	k.logger.Debugf("Produced snapshot to %s[%d]@%d", k.topic, partition, offset)
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
