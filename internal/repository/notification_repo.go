package repository

import (
	"Hearth/internal/model"
	mongoinit "Hearth/internal/pkg/mongo"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotificationList(ctx context.Context, to primitive.ObjectID, limit, offset int64) ([]*model.Notification, error)
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection(mongoinit.NotificationCollection),
	}
}

// CreateNotification 追加一条通知
func (s *notificationRepoImpl) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	res, err := s.col.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

// GetNotificationList 分页获取用户收到的通知 (按时间倒序)
func (s *notificationRepoImpl) GetNotificationList(ctx context.Context, to primitive.ObjectID, limit, offset int64) ([]*model.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, bson.M{"to": to}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*model.Notification, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return list, nil
}
