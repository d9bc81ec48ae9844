package redis

import (
	"Hearth/internal/pkg/consts"
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const followDirtyProcessingKey = consts.UserFollowDirtyKey + ":processing"

// FollowPair 一条待修复的关注边，Following 为修复后两侧应处于的状态
type FollowPair struct {
	FollowerID primitive.ObjectID
	FolloweeID primitive.ObjectID
	Following  bool
}

// String 作为 hash field，不含目标状态
func (p FollowPair) String() string {
	return p.FollowerID.Hex() + ":" + p.FolloweeID.Hex()
}

func (p FollowPair) state() string {
	if p.Following {
		return "1"
	}
	return "0"
}

// FollowDirtySet 记录补偿失败、两侧可能不一致的关注边。
// field 为关注边，value 为目标状态，同一条边以最后一次标记为准
type FollowDirtySet struct {
	rdb *redis.Client
}

func NewFollowDirtySet(rdb *redis.Client) *FollowDirtySet {
	return &FollowDirtySet{rdb: rdb}
}

func (s *FollowDirtySet) Mark(ctx context.Context, pair FollowPair) error {
	return s.rdb.HSet(ctx, consts.UserFollowDirtyKey, pair.String(), pair.state()).Err()
}

// Clear 关注边已被一次成功的切换写成一致状态，撤销待修复记录
func (s *FollowDirtySet) Clear(ctx context.Context, pair FollowPair) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, consts.UserFollowDirtyKey, pair.String())
		pipe.HDel(ctx, followDirtyProcessingKey, pair.String())
		return nil
	})
	return err
}

// Drain 取出当前所有待修复的边，处理期间新写入的边留到下一轮。
// 上一轮中断残留的 processing key 优先处理
func (s *FollowDirtySet) Drain(ctx context.Context) ([]FollowPair, error) {
	pairs, err := s.load(ctx)
	if err != nil || len(pairs) > 0 {
		return pairs, err
	}

	if err = s.rdb.Rename(ctx, consts.UserFollowDirtyKey, followDirtyProcessingKey).Err(); err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.load(ctx)
}

// Pending 处理前确认该边仍待修复，期间被 Clear 的边跳过
func (s *FollowDirtySet) Pending(ctx context.Context, pair FollowPair) (bool, error) {
	return s.rdb.HExists(ctx, followDirtyProcessingKey, pair.String()).Result()
}

// Done 本轮处理结束，清理 processing key
func (s *FollowDirtySet) Done(ctx context.Context) error {
	return s.rdb.Del(ctx, followDirtyProcessingKey).Err()
}

func (s *FollowDirtySet) load(ctx context.Context) ([]FollowPair, error) {
	entries, err := s.rdb.HGetAll(ctx, followDirtyProcessingKey).Result()
	if err != nil {
		return nil, err
	}

	pairs := make([]FollowPair, 0, len(entries))
	for field, state := range entries {
		if pair, ok := parsePair(field, state); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs, nil
}

func isNoSuchKey(err error) bool {
	return strings.Contains(err.Error(), "no such key")
}

func parsePair(field, state string) (FollowPair, bool) {
	follower, followee, ok := strings.Cut(field, ":")
	if !ok {
		return FollowPair{}, false
	}
	fid, err := primitive.ObjectIDFromHex(follower)
	if err != nil {
		return FollowPair{}, false
	}
	tid, err := primitive.ObjectIDFromHex(followee)
	if err != nil {
		return FollowPair{}, false
	}
	if state != "0" && state != "1" {
		return FollowPair{}, false
	}
	return FollowPair{FollowerID: fid, FolloweeID: tid, Following: state == "1"}, true
}
