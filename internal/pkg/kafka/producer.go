package kafka

import (
	"Hearth/internal/api/config"
	"Hearth/internal/model"
	"context"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// FollowEventProducer 投递关注关系变更事件
type FollowEventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewFollowEventProducer(cfg *config.Config) (*FollowEventProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return newFollowEventProducer(producer, cfg.KafkaFollowEvent.Topic), nil
}

func newFollowEventProducer(producer sarama.SyncProducer, topic string) *FollowEventProducer {
	return &FollowEventProducer{producer: producer, topic: topic}
}

// PublishFollowEvent 以关注对为 key，保证同一对关系的事件有序
func (s *FollowEventProducer) PublishFollowEvent(ctx context.Context, event *model.FollowEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.FollowerID + ":" + event.FolloweeID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("send follow event: %w", err)
	}
	log.DebugContext(ctx, "follow event sent", "partition", partition, "offset", offset)
	return nil
}

func (s *FollowEventProducer) Close() error {
	return s.producer.Close()
}
