package api

import (
	"Hearth/internal/api/handler"
	"Hearth/internal/pkg/identity"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	Provider            identity.Provider
	UserHandler         *handler.UserHandler
	UserFollowHandler   *handler.UserFollowHandler
	NotificationHandler *handler.NotificationHandler
	WsHandler           *handler.WsHandler
}
