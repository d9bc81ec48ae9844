package service

import (
	"Hearth/internal/model"
	"Hearth/internal/pkg/redis"
	"context"
	"io"
)

// ProfileCache 公开资料缓存
type ProfileCache interface {
	Get(ctx context.Context, username string) (*model.User, error)
	Set(ctx context.Context, user *model.User) error
	Invalidate(ctx context.Context, usernames ...string) error
}

// FollowDirtyMarker 记录补偿失败的关注边，等待定时任务修复；切换成功后撤销记录
type FollowDirtyMarker interface {
	Mark(ctx context.Context, pair redis.FollowPair) error
	Clear(ctx context.Context, pair redis.FollowPair) error
}

// FollowEventPublisher 关注关系变更事件
type FollowEventPublisher interface {
	PublishFollowEvent(ctx context.Context, event *model.FollowEvent) error
}

// NotificationSink 通知只追加写入
type NotificationSink interface {
	Create(ctx context.Context, n *model.Notification) error
}

// ImageStore 图片对象存储
type ImageStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	GetPublicURL(objectName string) string
	DeleteFile(ctx context.Context, objectName string) error
}
