package dto

import (
	"Hearth/internal/model"
	"time"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpdateProfileDTO 只更新传入的字段
type UpdateProfileDTO struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Bio       *string `json:"bio" validate:"omitempty,max=160"`
	Location  *string `json:"location" validate:"omitempty,max=50"`
}

// UserSummaryDTO 列表、通知中使用的用户摘要
type UserSummaryDTO struct {
	ID             primitive.ObjectID `json:"_id"`
	Username       string             `json:"username"`
	FirstName      string             `json:"firstName"`
	LastName       string             `json:"lastName"`
	ProfilePicture string             `json:"profilePicture"`
}

// NotificationDTO 通知返回对象
type NotificationDTO struct {
	ID        primitive.ObjectID `json:"_id"`
	Type      string             `json:"type"`
	From      *UserSummaryDTO    `json:"from"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ToUserSummary 由用户文档生成摘要
func ToUserSummary(u *model.User) (*UserSummaryDTO, error) {
	summary := &UserSummaryDTO{}
	if err := copier.Copy(summary, u); err != nil {
		return nil, err
	}
	return summary, nil
}
