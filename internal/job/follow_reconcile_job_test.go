package job

import (
	"Hearth/internal/pkg/redis"
	"Hearth/internal/service"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memDirtySet struct {
	pending []redis.FollowPair
	cleared map[redis.FollowPair]bool
	marked  []redis.FollowPair
	done    int
	err     error
}

func (m *memDirtySet) Mark(_ context.Context, pair redis.FollowPair) error {
	m.marked = append(m.marked, pair)
	return nil
}

func (m *memDirtySet) Drain(context.Context) ([]redis.FollowPair, error) {
	if m.err != nil {
		return nil, m.err
	}
	pairs := m.pending
	m.pending = nil
	return pairs, nil
}

func (m *memDirtySet) Pending(_ context.Context, pair redis.FollowPair) (bool, error) {
	return !m.cleared[pair], nil
}

func (m *memDirtySet) Done(context.Context) error {
	m.done++
	return nil
}

type reconcileRecorder struct {
	service.UserFollowService
	seen []redis.FollowPair
	fail map[primitive.ObjectID]bool
}

func (r *reconcileRecorder) ReconcileEdge(_ context.Context, pair redis.FollowPair) error {
	r.seen = append(r.seen, pair)
	if r.fail[pair.FollowerID] {
		return errors.New("mongo unavailable")
	}
	return nil
}

func TestFollowReconcileJobRun(t *testing.T) {
	ok := redis.FollowPair{FollowerID: primitive.NewObjectID(), FolloweeID: primitive.NewObjectID()}
	bad := redis.FollowPair{FollowerID: primitive.NewObjectID(), FolloweeID: primitive.NewObjectID(), Following: true}
	settled := redis.FollowPair{FollowerID: primitive.NewObjectID(), FolloweeID: primitive.NewObjectID()}
	dirty := &memDirtySet{
		pending: []redis.FollowPair{ok, settled, bad},
		cleared: map[redis.FollowPair]bool{settled: true},
	}
	svc := &reconcileRecorder{fail: map[primitive.ObjectID]bool{bad.FollowerID: true}}

	NewFollowReconcileJob(dirty, svc).Run()

	assert.Equal(t, []redis.FollowPair{ok, bad}, svc.seen)
	assert.Equal(t, []redis.FollowPair{bad}, dirty.marked)
	assert.Equal(t, 1, dirty.done)
}

func TestFollowReconcileJobNothingToDo(t *testing.T) {
	dirty := &memDirtySet{}
	svc := &reconcileRecorder{}

	NewFollowReconcileJob(dirty, svc).Run()

	assert.Empty(t, svc.seen)
	assert.Zero(t, dirty.done)

	dirty.err = errors.New("redis down")
	NewFollowReconcileJob(dirty, svc).Run()
	assert.Empty(t, svc.seen)
}
