package service

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/model"
	"Hearth/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	Create(ctx context.Context, n *model.Notification) error
	GetNotifications(ctx context.Context, externalID string, limit, offset int) ([]*dto.NotificationDTO, error)
}

type NotificationServiceImpl struct {
	notificationRepo repository.NotificationRepo
	userRepo         repository.UserRepo
}

func NewNotificationService(notificationRepo repository.NotificationRepo, userRepo repository.UserRepo) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// Create 追加一条通知，不提供修改与删除
func (s *NotificationServiceImpl) Create(ctx context.Context, n *model.Notification) error {
	return s.notificationRepo.CreateNotification(ctx, n)
}

// GetNotifications 按时间倒序获取当前用户收到的通知，并附带发送者摘要
func (s *NotificationServiceImpl) GetNotifications(ctx context.Context, externalID string, limit, offset int) ([]*dto.NotificationDTO, error) {
	user, err := s.userRepo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	list, err := s.notificationRepo.GetNotificationList(ctx, user.ID, int64(limit), int64(offset))
	if err != nil {
		return nil, err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(list))
	seen := make(map[primitive.ObjectID]struct{}, len(list))
	for _, n := range list {
		if _, ok := seen[n.From]; ok {
			continue
		}
		seen[n.From] = struct{}{}
		senderIDs = append(senderIDs, n.From)
	}
	senders, err := s.userRepo.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*model.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	res := make([]*dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		item := &dto.NotificationDTO{
			ID:        n.ID,
			Type:      string(n.Type),
			CreatedAt: n.CreatedAt,
		}
		if sender, ok := byID[n.From]; ok {
			if item.From, err = dto.ToUserSummary(sender); err != nil {
				return nil, err
			}
		}
		res = append(res, item)
	}
	return res, nil
}
