package handler

import (
	"Hearth/internal/api/middleware"
	"Hearth/internal/pkg/response"
	"Hearth/internal/pkg/util"
	"Hearth/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationSvc service.NotificationService
}

func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// GetNotifications 当前用户的通知列表
func (s *NotificationHandler) GetNotifications(c *gin.Context) {
	state := middleware.GetAuthState(c)
	limit, offset := util.ParsePagination(c.Query("page"), c.Query("page_size"))
	list, err := s.notificationSvc.GetNotifications(c.Request.Context(), state.CurrentExternalID(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "notifications", list)
}
