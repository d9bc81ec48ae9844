package es

import "Hearth/internal/model"

// UserES 对应 user_index 的文档结构
type UserES struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Bio            string `json:"bio,omitempty"`
	Location       string `json:"location,omitempty"`
	ProfilePicture string `json:"profile_picture"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

// NewUserES 由用户文档构造索引文档，版本号取 UpdatedAt
func NewUserES(u *model.User) (*UserES, int64) {
	return &UserES{
		ID:             u.ID.Hex(),
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Bio:            u.Bio,
		Location:       u.Location,
		ProfilePicture: u.ProfilePicture,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
	}, u.UpdatedAt.UnixNano()
}
