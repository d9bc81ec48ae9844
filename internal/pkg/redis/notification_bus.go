package redis

import (
	"Hearth/internal/pkg/consts"
	"context"

	"github.com/redis/go-redis/v9"
)

// NotificationBus 基于 Pub/Sub 将通知推送给在线用户
type NotificationBus struct {
	rdb *redis.Client
}

func NewNotificationBus(rdb *redis.Client) *NotificationBus {
	return &NotificationBus{rdb: rdb}
}

func (s *NotificationBus) Publish(ctx context.Context, userID string, payload []byte) error {
	return s.rdb.Publish(ctx, consts.NotificationChannelKey+userID, payload).Err()
}

func (s *NotificationBus) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, consts.NotificationChannelKey+userID)
}
