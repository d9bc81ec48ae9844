package api

import (
	"Hearth/internal/api/middleware"
	"Hearth/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, logIndex string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, logIndex)

	auth := middleware.AuthMiddleware(group.Provider)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		userGroup := apiGroup.Group("/users")
		{
			// 无需登录即可访问的接口
			userGroup.GET("/profile/:username", group.UserHandler.GetUserProfile)
			userGroup.GET("/search", group.UserHandler.SearchUsers)
			userGroup.GET("/:userId/followers", group.UserFollowHandler.GetFollowers)
			userGroup.GET("/:userId/following", group.UserFollowHandler.GetFollowing)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/sync", group.UserHandler.SyncUser)
				authGroup.GET("/me", group.UserHandler.GetCurrentUser)
				authGroup.PUT("/profile", group.UserHandler.UpdateProfile)
				authGroup.POST("/avatar", group.UserHandler.UploadAvatar)
				authGroup.POST("/banner", group.UserHandler.UploadBanner)
				authGroup.POST("/follow/:targetUserId", group.UserFollowHandler.ToggleFollow)
				authGroup.GET("/follow/status/:targetUserId", group.UserFollowHandler.GetFollowStatus)
			}
		}

		notificationGroup := apiGroup.Group("/notifications")
		{
			// WebSocket 自行鉴权
			notificationGroup.GET("/ws", group.WsHandler.Connect)
			notificationGroup.GET("", auth, group.NotificationHandler.GetNotifications)
		}
	}

	return r
}
