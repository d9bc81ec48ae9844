package service

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/model"
	"Hearth/internal/pkg/es"
	"Hearth/internal/pkg/identity"
	"Hearth/internal/pkg/util"
	"Hearth/internal/repository"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

type ImageKind string

const (
	ImageAvatar ImageKind = "avatar"
	ImageBanner ImageKind = "banner"
)

type imageSpec struct {
	prefix string
	field  string
	width  int
	height int
}

var imageSpecs = map[ImageKind]imageSpec{
	ImageAvatar: {prefix: "avatars/", field: "profile_picture", width: 400, height: 400},
	ImageBanner: {prefix: "banners/", field: "banner_image", width: 1500, height: 500},
}

var usernameInvalidChars = regexp.MustCompile(`[^a-z0-9_.]`)

type UserService interface {
	SyncUser(ctx context.Context, externalID string) (*model.User, bool, error)
	GetUserProfile(ctx context.Context, username string) (*model.User, error)
	GetCurrentUser(ctx context.Context, externalID string) (*model.User, error)
	UpdateProfile(ctx context.Context, externalID string, dto *dto.UpdateProfileDTO) (*model.User, error)
	UpdateImage(ctx context.Context, externalID string, kind ImageKind, file io.Reader) (*model.User, error)
	SearchUsers(ctx context.Context, keyword string, limit, offset int) ([]*dto.UserSummaryDTO, error)
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	provider identity.Provider
	cache    ProfileCache
	userES   es.UserRepo
	images   ImageStore
	group    singleflight.Group
}

func NewUserService(
	userRepo repository.UserRepo,
	provider identity.Provider,
	cache ProfileCache,
	userES es.UserRepo,
	images ImageStore,
) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		provider: provider,
		cache:    cache,
		userES:   userES,
		images:   images,
	}
}

// SyncUser 首次访问时根据身份提供方的资料建档，已存在直接返回。
// 并发建档依赖 external_id 唯一索引，冲突方重新查询后返回已有记录
func (s *UserServiceImpl) SyncUser(ctx context.Context, externalID string) (*model.User, bool, error) {
	user, err := s.userRepo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	profile, err := s.provider.FetchProfile(ctx, externalID)
	if err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	user = &model.User{
		ExternalID:     externalID,
		Email:          profile.Email,
		FirstName:      profile.FirstName,
		LastName:       profile.LastName,
		Username:       deriveUsername(profile),
		ProfilePicture: profile.ImageURL,
	}
	err = s.userRepo.CreateUser(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		user.Username = user.Username + "_" + uuid.NewString()[:6]
		err = s.userRepo.CreateUser(ctx, user)
	}
	if errors.Is(err, repository.ErrDuplicateExternalID) {
		existing, err := s.userRepo.GetUserByExternalID(ctx, externalID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("user %s conflicted but not found", externalID)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.indexUser(ctx, user)
	return user, true, nil
}

// deriveUsername 优先使用身份提供方的用户名，否则取邮箱前缀
func deriveUsername(p *identity.Profile) string {
	name := p.Username
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	name = usernameInvalidChars.ReplaceAllString(strings.ToLower(name), "")
	if name == "" {
		name = "user_" + uuid.NewString()[:8]
	}
	return name
}

// GetUserProfile 公开资料，缓存未命中时合并并发回源
func (s *UserServiceImpl) GetUserProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.cache.Get(ctx, username)
	if err != nil {
		log.WarnContext(ctx, "get profile cache failed", "err", err)
	}
	if user != nil {
		return user, nil
	}

	v, err, _ := s.group.Do(username, func() (interface{}, error) {
		u, err := s.userRepo.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
		if err = s.cache.Set(ctx, u); err != nil {
			log.WarnContext(ctx, "set profile cache failed", "err", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.User), nil
}

func (s *UserServiceImpl) GetCurrentUser(ctx context.Context, externalID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile 只合并传入的字段
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, externalID string, profileDTO *dto.UpdateProfileDTO) (*model.User, error) {
	if err := util.ValidateDTO(profileDTO); err != nil {
		return nil, err
	}

	fields := bson.M{}
	if profileDTO.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*profileDTO.FirstName)
	}
	if profileDTO.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*profileDTO.LastName)
	}
	if profileDTO.Bio != nil {
		fields["bio"] = strings.TrimSpace(*profileDTO.Bio)
	}
	if profileDTO.Location != nil {
		fields["location"] = strings.TrimSpace(*profileDTO.Location)
	}
	if len(fields) == 0 {
		return s.GetCurrentUser(ctx, externalID)
	}

	return s.updateFields(ctx, externalID, fields)
}

// UpdateImage 裁剪为固定尺寸后上传，保存公开访问地址
func (s *UserServiceImpl) UpdateImage(ctx context.Context, externalID string, kind ImageKind, file io.Reader) (*model.User, error) {
	spec, ok := imageSpecs[kind]
	if !ok {
		return nil, ErrParamInvalid
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrImageNotSupported
	}
	img = imaging.Fill(img, spec.width, spec.height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	objectName := spec.prefix + uuid.NewString() + ".jpg"
	key, err := s.images.UploadFile(ctx, objectName, &buf, int64(buf.Len()), "image/jpeg")
	if err != nil {
		return nil, err
	}

	user, err := s.updateFields(ctx, externalID, bson.M{spec.field: s.images.GetPublicURL(key)})
	if err != nil {
		// 资料未写入，删除刚上传的对象
		if delErr := s.images.DeleteFile(context.WithoutCancel(ctx), key); delErr != nil {
			log.WarnContext(ctx, "delete orphan image failed", "object", key, "err", delErr)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserServiceImpl) updateFields(ctx context.Context, externalID string, fields bson.M) (*model.User, error) {
	user, err := s.userRepo.UpdateUserFields(ctx, externalID, fields)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err = s.cache.Invalidate(ctx, user.Username); err != nil {
		log.WarnContext(ctx, "invalidate profile cache failed", "err", err)
	}
	s.indexUser(ctx, user)
	return user, nil
}

func (s *UserServiceImpl) SearchUsers(ctx context.Context, keyword string, limit, offset int) ([]*dto.UserSummaryDTO, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrParamInvalid
	}

	docs, err := s.userES.SearchUsers(ctx, keyword, offset, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UserSummaryDTO, 0, len(docs))
	for _, d := range docs {
		id, err := primitive.ObjectIDFromHex(d.ID)
		if err != nil {
			continue
		}
		res = append(res, &dto.UserSummaryDTO{
			ID:             id,
			Username:       d.Username,
			FirstName:      d.FirstName,
			LastName:       d.LastName,
			ProfilePicture: d.ProfilePicture,
		})
	}
	return res, nil
}

// indexUser 写入搜索索引，失败只记录日志
func (s *UserServiceImpl) indexUser(ctx context.Context, user *model.User) {
	doc, version := es.NewUserES(user)
	if err := s.userES.IndexUser(ctx, doc, version); err != nil {
		log.WarnContext(ctx, "index user failed", "user_id", doc.ID, "err", err)
	}
}
