package kafka

import (
	"Hearth/internal/api/dto"
	"Hearth/internal/model"
	"Hearth/internal/pkg/es"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	users map[primitive.ObjectID]*model.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	return f.users[id], nil
}

type fakeUserES struct {
	mu      sync.Mutex
	indexed map[string]int64
	err     error
}

func (f *fakeUserES) IndexUser(_ context.Context, user *es.UserES, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.indexed[user.ID] = version
	return nil
}

func (f *fakeUserES) SearchUsers(context.Context, string, int, int) ([]*es.UserES, error) {
	return nil, nil
}

type pushed struct {
	userID  string
	payload []byte
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (f *fakePusher) Publish(_ context.Context, userID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pushed{userID: userID, payload: payload})
	return nil
}

func newTestUsers() (*model.User, *model.User, *fakeUsers) {
	now := time.Now()
	alice := &model.User{ID: primitive.NewObjectID(), Username: "alice", FirstName: "Alice", UpdatedAt: now}
	bob := &model.User{ID: primitive.NewObjectID(), Username: "bob", UpdatedAt: now}
	alice.Following = []primitive.ObjectID{bob.ID}
	bob.Followers = []primitive.ObjectID{alice.ID}
	return alice, bob, &fakeUsers{users: map[primitive.ObjectID]*model.User{alice.ID: alice, bob.ID: bob}}
}

func eventMessage(t *testing.T, event *model.FollowEvent) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "follow-events", Value: value}
}

func TestFollowEventReindexesAndPushes(t *testing.T) {
	alice, bob, users := newTestUsers()
	index := &fakeUserES{indexed: map[string]int64{}}
	pusher := &fakePusher{}
	h := NewFollowEventsHandler(users, index, pusher)

	notificationID := primitive.NewObjectID()
	err := h.logic(context.Background(), eventMessage(t, &model.FollowEvent{
		Type:           model.FollowEventFollow,
		FollowerID:     alice.ID.Hex(),
		FolloweeID:     bob.ID.Hex(),
		NotificationID: notificationID.Hex(),
		OccurredAt:     time.Now(),
	}))
	require.NoError(t, err)

	assert.Contains(t, index.indexed, alice.ID.Hex())
	assert.Contains(t, index.indexed, bob.ID.Hex())

	require.Len(t, pusher.sent, 1)
	assert.Equal(t, bob.ID.Hex(), pusher.sent[0].userID)
	var payload dto.NotificationDTO
	require.NoError(t, json.Unmarshal(pusher.sent[0].payload, &payload))
	assert.Equal(t, notificationID, payload.ID)
	assert.Equal(t, "follow", payload.Type)
	assert.Equal(t, "alice", payload.From.Username)
}

func TestUnfollowEventOnlyReindexes(t *testing.T) {
	alice, bob, users := newTestUsers()
	index := &fakeUserES{indexed: map[string]int64{}}
	pusher := &fakePusher{}
	h := NewFollowEventsHandler(users, index, pusher)

	err := h.logic(context.Background(), eventMessage(t, &model.FollowEvent{
		Type:       model.FollowEventUnfollow,
		FollowerID: alice.ID.Hex(),
		FolloweeID: bob.ID.Hex(),
	}))

	require.NoError(t, err)
	assert.Len(t, index.indexed, 2)
	assert.Empty(t, pusher.sent)
}

func TestFollowEventMalformedIsSkipped(t *testing.T) {
	_, _, users := newTestUsers()
	h := NewFollowEventsHandler(users, &fakeUserES{indexed: map[string]int64{}}, &fakePusher{})

	err := h.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte("{")})
	assert.ErrorIs(t, err, errSkip)

	err = h.logic(context.Background(), eventMessage(t, &model.FollowEvent{FollowerID: "zz", FolloweeID: "yy"}))
	assert.ErrorIs(t, err, errSkip)
}

func TestFollowEventIndexErrorIsRetryable(t *testing.T) {
	alice, bob, users := newTestUsers()
	h := NewFollowEventsHandler(users, &fakeUserES{indexed: map[string]int64{}, err: errors.New("es down")}, &fakePusher{})

	err := h.logic(context.Background(), eventMessage(t, &model.FollowEvent{
		Type:       model.FollowEventFollow,
		FollowerID: alice.ID.Hex(),
		FolloweeID: bob.ID.Hex(),
	}))

	require.Error(t, err)
	assert.NotErrorIs(t, err, errSkip)
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (f *fakeSession) Context() context.Context { return f.ctx }

func (f *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	f.marked = append(f.marked, msg)
}

func (f *fakeSession) Commit() {}

func TestProcessBatchMarksLastMessage(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}
	msgs := []*sarama.ConsumerMessage{{Offset: 1}, {Offset: 2}, {Offset: 3}}

	var mu sync.Mutex
	attempts := map[int64]int{}
	processBatch(session, msgs, func(_ context.Context, m *sarama.ConsumerMessage) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[m.Offset]++
		if m.Offset == 2 && attempts[m.Offset] == 1 {
			return errors.New("transient")
		}
		if m.Offset == 3 {
			return errSkip
		}
		return nil
	})

	require.Len(t, session.marked, 1)
	assert.Equal(t, int64(3), session.marked[0].Offset)
	assert.Equal(t, 2, attempts[2])
	assert.Equal(t, 1, attempts[3])
}
