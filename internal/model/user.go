package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User 用户文档，external_id 与 username 均有唯一索引
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ExternalID     string               `bson:"external_id" json:"externalId"`
	Email          string               `bson:"email" json:"email"`
	FirstName      string               `bson:"first_name" json:"firstName"`
	LastName       string               `bson:"last_name" json:"lastName"`
	Username       string               `bson:"username" json:"username"`
	ProfilePicture string               `bson:"profile_picture" json:"profilePicture"`
	BannerImage    string               `bson:"banner_image" json:"bannerImage"`
	Bio            string               `bson:"bio" json:"bio"`
	Location       string               `bson:"location" json:"location"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// IsFollowing 判断当前用户的关注集合中是否包含 id
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return containsID(u.Following, id)
}

// HasFollower 判断 id 是否在当前用户的粉丝集合中
func (u *User) HasFollower(id primitive.ObjectID) bool {
	return containsID(u.Followers, id)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
