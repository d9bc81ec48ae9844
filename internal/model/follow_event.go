package model

import "time"

type FollowEventType string

const (
	FollowEventFollow   FollowEventType = "follow"
	FollowEventUnfollow FollowEventType = "unfollow"
)

// FollowEvent 关注关系变更后投递到 Kafka 的消息
type FollowEvent struct {
	Type           FollowEventType `json:"type"`
	FollowerID     string          `json:"followerId"`
	FolloweeID     string          `json:"followeeId"`
	NotificationID string          `json:"notificationId,omitempty"`
	OccurredAt     time.Time       `json:"occurredAt"`
}
