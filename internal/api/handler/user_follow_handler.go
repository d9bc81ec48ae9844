package handler

import (
	"Hearth/internal/api/middleware"
	"Hearth/internal/pkg/response"
	"Hearth/internal/pkg/util"
	"Hearth/internal/service"

	"github.com/gin-gonic/gin"
)

type UserFollowHandler struct {
	userFollowSvc service.UserFollowService
}

func NewUserFollowHandler(userFollowSvc service.UserFollowService) *UserFollowHandler {
	return &UserFollowHandler{userFollowSvc: userFollowSvc}
}

// ToggleFollow 关注 / 取消关注
func (s *UserFollowHandler) ToggleFollow(c *gin.Context) {
	state := middleware.GetAuthState(c)
	action, err := s.userFollowSvc.ToggleFollow(c.Request.Context(), state.CurrentExternalID(), c.Param("targetUserId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, action.Message())
}

func (s *UserFollowHandler) GetFollowStatus(c *gin.Context) {
	state := middleware.GetAuthState(c)
	following, err := s.userFollowSvc.IsFollowing(c.Request.Context(), state.CurrentExternalID(), c.Param("targetUserId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "following", following)
}

func (s *UserFollowHandler) GetFollowers(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("page"), c.Query("page_size"))
	users, err := s.userFollowSvc.GetFollowers(c.Request.Context(), c.Param("userId"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "users", users)
}

func (s *UserFollowHandler) GetFollowing(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("page"), c.Query("page_size"))
	users, err := s.userFollowSvc.GetFollowing(c.Request.Context(), c.Param("userId"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "users", users)
}
