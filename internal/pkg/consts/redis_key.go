package consts

const (
	UserProfileKey         = "user:profile:"
	UserFollowDirtyKey     = "user:follow:dirty"
	NotificationChannelKey = "notification:user:"
)
