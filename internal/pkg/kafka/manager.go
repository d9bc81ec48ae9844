package kafka

import (
	"Hearth/internal/api/config"
	"Hearth/internal/pkg/es"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	followEventsConsumer sarama.ConsumerGroup
	followEventsHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(
	cfg *config.Config,
	users UserReader,
	userESRepo es.UserRepo,
	pusher NotificationPusher,
) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	followEventsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaFollowEvent.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		followEventsConsumer: followEventsConsumer,
		followEventsHandler:  NewFollowEventsHandler(users, userESRepo, pusher),
	}, nil
}

// Start 启动所有消费者，ctx 结束后关闭
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaFollowEvent.Topic
		log.Info("Follow events consumer started", "topic", topic)
		for {
			if err := m.followEventsConsumer.Consume(ctx, []string{topic}, m.followEventsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.followEventsConsumer.Close(); err != nil {
		log.Error("Failed to close follow events consumer", "err", err)
	}
	return nil
}
