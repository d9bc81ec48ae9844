package job

import (
	"Hearth/internal/pkg/logger"
	"Hearth/internal/pkg/redis"
	"Hearth/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const reconcileTimeout = time.Minute

// DirtyFollowSet 待修复关注边的存取
type DirtyFollowSet interface {
	Mark(ctx context.Context, pair redis.FollowPair) error
	Drain(ctx context.Context) ([]redis.FollowPair, error)
	Pending(ctx context.Context, pair redis.FollowPair) (bool, error)
	Done(ctx context.Context) error
}

// FollowReconcileJob 修复补偿失败后两侧不一致的关注边
type FollowReconcileJob struct {
	dirty         DirtyFollowSet
	userFollowSvc service.UserFollowService
}

func NewFollowReconcileJob(dirty DirtyFollowSet, userFollowSvc service.UserFollowService) *FollowReconcileJob {
	return &FollowReconcileJob{
		dirty:         dirty,
		userFollowSvc: userFollowSvc,
	}
}

func (s *FollowReconcileJob) Run() {
	traceID := "job-follow-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), traceID), reconcileTimeout)
	defer cancel()

	pairs, err := s.dirty.Drain(ctx)
	if err != nil {
		log.ErrorContext(ctx, "drain dirty follow set error", "err", err)
		return
	}
	if len(pairs) == 0 {
		return
	}

	var failed, skipped int
	for _, pair := range pairs {
		// 期间成功的切换已清除记录，两侧已一致
		pending, err := s.dirty.Pending(ctx, pair)
		if err != nil {
			log.WarnContext(ctx, "check dirty follow edge error", "pair", pair.String(), "err", err)
		} else if !pending {
			skipped++
			continue
		}

		if err = s.userFollowSvc.ReconcileEdge(ctx, pair); err != nil {
			failed++
			log.ErrorContext(ctx, "reconcile follow edge error", "pair", pair.String(), "err", err)
			// 放回脏集合，下一轮重试
			if err = s.dirty.Mark(ctx, pair); err != nil {
				log.ErrorContext(ctx, "re-mark follow edge error", "pair", pair.String(), "err", err)
			}
		}
	}

	if err = s.dirty.Done(ctx); err != nil {
		log.ErrorContext(ctx, "clear processing set error", "err", err)
	}

	log.InfoContext(ctx, "reconcile follow edges done", "total", len(pairs), "skipped", skipped, "failed", failed)
}
