package handler

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/api/middleware"
	"Hearth/internal/pkg/response"
	"Hearth/internal/pkg/util"
	"Hearth/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUserProfile 公开资料
func (s *UserHandler) GetUserProfile(c *gin.Context) {
	user, err := s.userSvc.GetUserProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "user", user)
}

// SyncUser 首次访问建档，新建返回 201
func (s *UserHandler) SyncUser(c *gin.Context) {
	state := middleware.GetAuthState(c)
	user, created, err := s.userSvc.SyncUser(c.Request.Context(), state.CurrentExternalID())
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, "user", user)
		return
	}
	response.Success(c, "user", user)
}

func (s *UserHandler) GetCurrentUser(c *gin.Context) {
	state := middleware.GetAuthState(c)
	user, err := s.userSvc.GetCurrentUser(c.Request.Context(), state.CurrentExternalID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "user", user)
}

func (s *UserHandler) UpdateProfile(c *gin.Context) {
	var profileDTO dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&profileDTO); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	state := middleware.GetAuthState(c)
	user, err := s.userSvc.UpdateProfile(c.Request.Context(), state.CurrentExternalID(), &profileDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "user", user)
}

func (s *UserHandler) UploadAvatar(c *gin.Context) {
	s.uploadImage(c, service.ImageAvatar)
}

func (s *UserHandler) UploadBanner(c *gin.Context) {
	s.uploadImage(c, service.ImageBanner)
}

func (s *UserHandler) uploadImage(c *gin.Context, kind service.ImageKind) {
	file, err := c.FormFile("image")
	if err != nil || file == nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	content, _, ok, err := util.DetectImage(reader)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, service.ErrImageNotSupported)
		return
	}

	state := middleware.GetAuthState(c)
	user, err := s.userSvc.UpdateImage(c.Request.Context(), state.CurrentExternalID(), kind, content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "user", user)
}

// SearchUsers 按关键字搜人
func (s *UserHandler) SearchUsers(c *gin.Context) {
	limit, offset := util.ParsePagination(c.Query("page"), c.Query("page_size"))
	users, err := s.userSvc.SearchUsers(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "users", users)
}
