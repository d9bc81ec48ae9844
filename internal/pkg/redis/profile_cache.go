package redis

import (
	"Hearth/internal/model"
	"Hearth/internal/pkg/consts"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	profileTTL = 10 * time.Minute
	// 延迟二次删除，覆盖失效前已读库、失效后才回填的并发请求
	profileRedeleteDelay   = 500 * time.Millisecond
	profileRedeleteTimeout = 2 * time.Second
)

// ProfileCache 按 username 缓存公开资料
type ProfileCache struct {
	rdb           *redis.Client
	redeleteDelay time.Duration
}

func NewProfileCache(rdb *redis.Client) *ProfileCache {
	return &ProfileCache{rdb: rdb, redeleteDelay: profileRedeleteDelay}
}

// Get 未命中返回 nil, nil
func (s *ProfileCache) Get(ctx context.Context, username string) (*model.User, error) {
	value, err := s.rdb.Get(ctx, consts.UserProfileKey+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user model.User
	if err = json.Unmarshal(value, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *ProfileCache) Set(ctx context.Context, user *model.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, consts.UserProfileKey+user.Username, value, profileTTL).Err()
}

func (s *ProfileCache) Invalidate(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	keys := make([]string, 0, len(usernames))
	for _, name := range usernames {
		keys = append(keys, consts.UserProfileKey+name)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}

	time.AfterFunc(s.redeleteDelay, func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), profileRedeleteTimeout)
		defer cancel()
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			log.WarnContext(ctx, "delayed profile cache delete failed", "keys", keys, "err", err)
		}
	})
	return nil
}
