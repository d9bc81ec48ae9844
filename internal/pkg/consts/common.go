package consts

const (
	// AuthStateKey gin.Context 中保存身份信息的 Key
	AuthStateKey = "auth_state"
	// SessionCookie 身份提供方写入的会话 Cookie
	SessionCookie = "__session"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const (
	MimePrefixImage = "image"
)
