package service

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/model"
	"Hearth/internal/pkg/redis"
	"Hearth/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const compensateTimeout = 5 * time.Second

type FollowAction int

const (
	FollowActionFollowed FollowAction = iota + 1
	FollowActionUnfollowed
)

func (a FollowAction) Message() string {
	if a == FollowActionFollowed {
		return "User followed successfully"
	}
	return "User unfollowed successfully"
}

type UserFollowService interface {
	ToggleFollow(ctx context.Context, requesterExternalID, targetUserID string) (FollowAction, error)
	IsFollowing(ctx context.Context, requesterExternalID, targetUserID string) (bool, error)
	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*dto.UserSummaryDTO, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*dto.UserSummaryDTO, error)
	ReconcileEdge(ctx context.Context, pair redis.FollowPair) error
}

type UserFollowServiceImpl struct {
	userRepo      repository.UserRepo
	notifications NotificationSink
	cache         ProfileCache
	dirty         FollowDirtyMarker
	publisher     FollowEventPublisher
}

func NewUserFollowService(
	userRepo repository.UserRepo,
	notifications NotificationSink,
	cache ProfileCache,
	dirty FollowDirtyMarker,
	publisher FollowEventPublisher,
) UserFollowService {
	return &UserFollowServiceImpl{
		userRepo:      userRepo,
		notifications: notifications,
		cache:         cache,
		dirty:         dirty,
		publisher:     publisher,
	}
}

// ToggleFollow 关注或取消关注，仅在建立关注时写入通知
func (s *UserFollowServiceImpl) ToggleFollow(ctx context.Context, requesterExternalID, targetUserID string) (FollowAction, error) {
	requester, err := s.userRepo.GetUserByExternalID(ctx, requesterExternalID)
	if err != nil {
		return 0, err
	}
	if requester == nil {
		return 0, ErrUserNotFound
	}

	targetID, err := primitive.ObjectIDFromHex(targetUserID)
	if err != nil {
		return 0, ErrUserNotFound
	}
	if targetID == requester.ID {
		return 0, ErrSelfFollow
	}

	target, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, ErrUserNotFound
	}

	// 两侧都存在才算已关注，补偿失败留下的半条边按未关注处理
	wasFollowing := requester.IsFollowing(targetID)
	follow := !(wasFollowing && target.HasFollower(requester.ID))
	notification, changed, err := s.toggleEdge(ctx, requester.ID, targetID, wasFollowing, follow)
	if err != nil {
		return 0, err
	}

	s.afterToggle(ctx, requester, target, follow, changed, notification)
	if follow {
		return FollowActionFollowed, nil
	}
	return FollowActionUnfollowed, nil
}

// toggleEdge 两侧集合与通知作为一个整体写入。
// followers 一侧是条件更新，只有真正改变了它的请求才写通知，并发的同向切换只产生一条通知。
// 事务模式下由存储回滚；否则按相反顺序执行逆操作，逆操作失败时把切换前的状态记入脏集合
func (s *UserFollowServiceImpl) toggleEdge(
	ctx context.Context,
	followerID, followeeID primitive.ObjectID,
	wasFollowing, follow bool,
) (*model.Notification, bool, error) {
	var undo []func(ctx context.Context) error
	var notification *model.Notification
	var changed bool
	pair := redis.FollowPair{FollowerID: followerID, FolloweeID: followeeID, Following: !follow}

	err := s.userRepo.RunInTx(ctx, func(ctx context.Context) error {
		// 事务重试时闭包会被重新执行
		undo = undo[:0]
		notification = nil
		changed = false

		if wasFollowing != follow {
			if err := s.userRepo.SetFollowing(ctx, followerID, followeeID, follow); err != nil {
				return err
			}
			undo = append(undo, func(ctx context.Context) error {
				return s.userRepo.SetFollowing(ctx, followerID, followeeID, wasFollowing)
			})
		}

		ok, err := s.userRepo.SetFollower(ctx, followeeID, followerID, follow)
		if err != nil {
			return err
		}
		if !ok {
			// 并发的同向请求已完成切换
			return nil
		}
		changed = true
		undo = append(undo, func(ctx context.Context) error {
			_, err := s.userRepo.SetFollower(ctx, followeeID, followerID, !follow)
			return err
		})

		if !follow {
			return nil
		}
		n := &model.Notification{
			From: followerID,
			To:   followeeID,
			Type: model.NotificationTypeFollow,
		}
		if err = s.notifications.Create(ctx, n); err != nil {
			return err
		}
		notification = n
		return nil
	})
	if err == nil {
		// 两侧已写成一致状态，之前遗留的修复记录作废
		if err = s.dirty.Clear(ctx, pair); err != nil {
			log.WarnContext(ctx, "clear dirty follow edge failed", "pair", pair.String(), "err", err)
		}
		return notification, changed, nil
	}

	if !s.userRepo.Transactional() && len(undo) > 0 {
		s.compensate(ctx, undo, pair)
	}
	if errors.Is(err, repository.ErrNoMatch) {
		return nil, false, ErrUserNotFound
	}
	return nil, false, fmt.Errorf("toggle follow edge: %w", err)
}

func (s *UserFollowServiceImpl) compensate(ctx context.Context, undo []func(ctx context.Context) error, pair redis.FollowPair) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			log.ErrorContext(ctx, "follow compensation failed, marking edge dirty", "pair", pair.String(), "err", err)
			if err = s.dirty.Mark(ctx, pair); err != nil {
				log.ErrorContext(ctx, "mark dirty follow edge failed", "pair", pair.String(), "err", err)
			}
			return
		}
	}
}

// afterToggle 提交后的缓存失效与事件投递，失败只记录日志。并发中未改变状态的请求不再投递事件
func (s *UserFollowServiceImpl) afterToggle(ctx context.Context, requester, target *model.User, follow, changed bool, notification *model.Notification) {
	if err := s.cache.Invalidate(ctx, requester.Username, target.Username); err != nil {
		log.WarnContext(ctx, "invalidate profile cache failed", "err", err)
	}
	if !changed {
		return
	}

	event := &model.FollowEvent{
		Type:       model.FollowEventUnfollow,
		FollowerID: requester.ID.Hex(),
		FolloweeID: target.ID.Hex(),
		OccurredAt: time.Now(),
	}
	if follow {
		event.Type = model.FollowEventFollow
	}
	if notification != nil {
		event.NotificationID = notification.ID.Hex()
		event.OccurredAt = notification.CreatedAt
	}
	if err := s.publisher.PublishFollowEvent(ctx, event); err != nil {
		log.ErrorContext(ctx, "publish follow event failed", "event", event.Type, "err", err)
	}
}

func (s *UserFollowServiceImpl) IsFollowing(ctx context.Context, requesterExternalID, targetUserID string) (bool, error) {
	requester, err := s.userRepo.GetUserByExternalID(ctx, requesterExternalID)
	if err != nil {
		return false, err
	}
	if requester == nil {
		return false, ErrUserNotFound
	}
	targetID, err := primitive.ObjectIDFromHex(targetUserID)
	if err != nil {
		return false, ErrUserNotFound
	}
	return requester.IsFollowing(targetID), nil
}

func (s *UserFollowServiceImpl) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*dto.UserSummaryDTO, error) {
	return s.getFollowListCommon(ctx, userID, limit, offset, func(u *model.User) []primitive.ObjectID {
		return u.Followers
	})
}

func (s *UserFollowServiceImpl) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*dto.UserSummaryDTO, error) {
	return s.getFollowListCommon(ctx, userID, limit, offset, func(u *model.User) []primitive.ObjectID {
		return u.Following
	})
}

func (s *UserFollowServiceImpl) getFollowListCommon(
	ctx context.Context,
	userID string,
	limit, offset int,
	members func(u *model.User) []primitive.ObjectID,
) ([]*dto.UserSummaryDTO, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ids := members(user)
	if offset >= len(ids) {
		return []*dto.UserSummaryDTO{}, nil
	}
	end := min(offset+limit, len(ids))

	users, err := s.userRepo.GetUsersByIDs(ctx, ids[offset:end])
	if err != nil {
		return nil, err
	}
	res := make([]*dto.UserSummaryDTO, 0, len(users))
	for _, u := range users {
		summary, err := dto.ToUserSummary(u)
		if err != nil {
			return nil, err
		}
		res = append(res, summary)
	}
	return res, nil
}

// ReconcileEdge 把补偿失败的关注边两侧恢复到切换前的状态，已不存在的用户从另一侧剔除。
// 恢复到切换前状态不会凭空产生没有通知的新关注
func (s *UserFollowServiceImpl) ReconcileEdge(ctx context.Context, pair redis.FollowPair) error {
	follower, err := s.userRepo.GetUserByID(ctx, pair.FollowerID)
	if err != nil {
		return err
	}
	followee, err := s.userRepo.GetUserByID(ctx, pair.FolloweeID)
	if err != nil {
		return err
	}

	var usernames []string
	switch {
	case follower == nil && followee == nil:
		return nil
	case follower == nil:
		if followee.HasFollower(pair.FollowerID) {
			_, err = s.userRepo.SetFollower(ctx, pair.FolloweeID, pair.FollowerID, false)
		}
		usernames = append(usernames, followee.Username)
	case followee == nil:
		if follower.IsFollowing(pair.FolloweeID) {
			err = s.userRepo.SetFollowing(ctx, pair.FollowerID, pair.FolloweeID, false)
		}
		usernames = append(usernames, follower.Username)
	default:
		if follower.IsFollowing(pair.FolloweeID) != pair.Following {
			err = s.userRepo.SetFollowing(ctx, pair.FollowerID, pair.FolloweeID, pair.Following)
		}
		if err == nil && followee.HasFollower(pair.FollowerID) != pair.Following {
			_, err = s.userRepo.SetFollower(ctx, pair.FolloweeID, pair.FollowerID, pair.Following)
		}
		usernames = append(usernames, follower.Username, followee.Username)
	}
	if err != nil && !errors.Is(err, repository.ErrNoMatch) {
		return err
	}

	if err = s.cache.Invalidate(ctx, usernames...); err != nil {
		log.WarnContext(ctx, "invalidate profile cache failed", "err", err)
	}
	return nil
}
