package middleware

import (
	"Hearth/internal/pkg/consts"
	"Hearth/internal/pkg/identity"
	"Hearth/internal/pkg/response"
	"Hearth/internal/service"
	log "log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验会话令牌，将身份信息注入 Context，失败直接中断请求
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		externalID, err := provider.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.InfoContext(c, "session rejected", "err", err)
			abortUnauthorized(c)
			return
		}

		c.Set(consts.AuthStateKey, identity.NewAuthState(externalID))
		c.Next()
	}
}

// ExtractToken 优先读取 Authorization 头，其次读取会话 Cookie
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(consts.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// GetAuthState 读取中间件写入的身份信息，未经过校验时返回未认证状态
func GetAuthState(c *gin.Context) identity.AuthState {
	if v, ok := c.Get(consts.AuthStateKey); ok {
		if state, ok := v.(identity.AuthState); ok {
			return state
		}
	}
	return identity.AuthState{}
}

func abortUnauthorized(c *gin.Context) {
	response.Fail(c, http.StatusUnauthorized, service.ErrUnauthorized.Error())
	c.Abort()
}
