package kafka

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/model"
	"Hearth/internal/pkg/es"
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserReader interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

type NotificationPusher interface {
	Publish(ctx context.Context, userID string, payload []byte) error
}

// FollowEventsHandler 消费关注事件：重建双方的搜索文档，并推送关注通知
type FollowEventsHandler struct {
	users  UserReader
	userES es.UserRepo
	pusher NotificationPusher
}

func NewFollowEventsHandler(users UserReader, userES es.UserRepo, pusher NotificationPusher) *FollowEventsHandler {
	return &FollowEventsHandler{
		users:  users,
		userES: userES,
		pusher: pusher,
	}
}

func (s *FollowEventsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("follow events consumer setup")
	return nil
}

func (s *FollowEventsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("follow events consumer cleanup")
	return nil
}

func (s *FollowEventsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("follow-events process batch error", "err", err)
		return err
	}
	return nil
}

func (s *FollowEventsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	event, err := ToFollowEvent(msg)
	if err != nil {
		return err
	}

	followerID, err := primitive.ObjectIDFromHex(event.FollowerID)
	if err != nil {
		return errors.Join(errSkip, err)
	}
	followeeID, err := primitive.ObjectIDFromHex(event.FolloweeID)
	if err != nil {
		return errors.Join(errSkip, err)
	}

	follower, err := s.reindex(ctx, followerID)
	if err != nil {
		return err
	}
	if _, err = s.reindex(ctx, followeeID); err != nil {
		return err
	}

	if event.Type != model.FollowEventFollow || follower == nil {
		return nil
	}
	return s.push(ctx, event, follower)
}

// reindex 以数据库当前状态为准，重复消费结果一致
func (s *FollowEventsHandler) reindex(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	doc, version := es.NewUserES(user)
	if err = s.userES.IndexUser(ctx, doc, version); err != nil {
		return nil, fmt.Errorf("index user %s: %w", doc.ID, err)
	}
	return user, nil
}

func (s *FollowEventsHandler) push(ctx context.Context, event *model.FollowEvent, follower *model.User) error {
	notificationID, _ := primitive.ObjectIDFromHex(event.NotificationID)
	from, err := dto.ToUserSummary(follower)
	if err != nil {
		return errors.Join(errSkip, err)
	}
	payload, err := json.Marshal(&dto.NotificationDTO{
		ID:        notificationID,
		Type:      string(model.NotificationTypeFollow),
		From:      from,
		CreatedAt: event.OccurredAt,
	})
	if err != nil {
		return errors.Join(errSkip, err)
	}
	return s.pusher.Publish(ctx, event.FolloweeID, payload)
}
