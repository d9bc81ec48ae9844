package service

import (
	"Hearth/internal/model"
	"Hearth/internal/pkg/es"
	"Hearth/internal/pkg/identity"
	"Hearth/internal/pkg/redis"
	"Hearth/internal/repository"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memUserRepo 内存实现，external_id 与 username 唯一，errs 按调用顺序注入错误
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User
	errs  map[string][]error
	calls map[string]int
	tx    bool
	// readBarrier 非空时 GetUserByID 读取后在此等待，让并发请求读到同一份状态
	readBarrier *sync.WaitGroup
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users: map[primitive.ObjectID]*model.User{},
		errs:  map[string][]error{},
		calls: map[string]int{},
	}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Following = slices.Clone(u.Following)
	c.Followers = slices.Clone(u.Followers)
	return &c
}

func (r *memUserRepo) add(externalID, username string) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &model.User{
		ID:         primitive.NewObjectID(),
		ExternalID: externalID,
		Username:   username,
		Following:  []primitive.ObjectID{},
		Followers:  []primitive.ObjectID{},
		UpdatedAt:  time.Now(),
	}
	r.users[u.ID] = u
	return cloneUser(u)
}

func (r *memUserRepo) get(id primitive.ObjectID) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memUserRepo) injected(op string) error {
	r.calls[op]++
	queue := r.errs[op]
	if len(queue) == 0 {
		return nil
	}
	r.errs[op] = queue[1:]
	return queue[0]
}

func (r *memUserRepo) find(match func(u *model.User) bool) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *memUserRepo) GetUserByExternalID(_ context.Context, externalID string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ExternalID == externalID }), nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	u := r.find(func(u *model.User) bool { return u.ID == id })
	if r.readBarrier != nil {
		r.readBarrier.Done()
		r.readBarrier.Wait()
	}
	return u, nil
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	r.calls["GetUserByUsername"]++
	r.mu.Unlock()
	return r.find(func(u *model.User) bool { return u.Username == username }), nil
}

func (r *memUserRepo) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			res = append(res, cloneUser(u))
		}
	}
	return res, nil
}

func (r *memUserRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("CreateUser"); err != nil {
		return err
	}
	for _, u := range r.users {
		if u.ExternalID == user.ExternalID {
			return repository.ErrDuplicateExternalID
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memUserRepo) UpdateUserFields(_ context.Context, externalID string, fields bson.M) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ExternalID != externalID {
			continue
		}
		for k, v := range fields {
			s, _ := v.(string)
			switch k {
			case "first_name":
				u.FirstName = s
			case "last_name":
				u.LastName = s
			case "bio":
				u.Bio = s
			case "location":
				u.Location = s
			case "profile_picture":
				u.ProfilePicture = s
			case "banner_image":
				u.BannerImage = s
			}
		}
		u.UpdatedAt = time.Now()
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *memUserRepo) SetFollowing(_ context.Context, userID, targetID primitive.ObjectID, present bool) error {
	_, err := r.setMembership("SetFollowing", userID, targetID, present, func(u *model.User) *[]primitive.ObjectID {
		return &u.Following
	})
	return err
}

func (r *memUserRepo) SetFollower(_ context.Context, userID, followerID primitive.ObjectID, present bool) (bool, error) {
	return r.setMembership("SetFollower", userID, followerID, present, func(u *model.User) *[]primitive.ObjectID {
		return &u.Followers
	})
}

func (r *memUserRepo) setMembership(op string, userID, member primitive.ObjectID, present bool, field func(u *model.User) *[]primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected(op); err != nil {
		return false, err
	}
	u, ok := r.users[userID]
	if !ok {
		return false, repository.ErrNoMatch
	}
	set := field(u)
	idx := slices.Index(*set, member)
	switch {
	case present && idx < 0:
		*set = append(*set, member)
	case !present && idx >= 0:
		*set = slices.Delete(*set, idx, idx+1)
	default:
		return false, nil
	}
	u.UpdatedAt = time.Now()
	return true, nil
}

// RunInTx 事务模式下失败时恢复快照，模拟存储回滚
func (r *memUserRepo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.tx {
		return fn(ctx)
	}
	r.mu.Lock()
	snapshot := make(map[primitive.ObjectID]*model.User, len(r.users))
	for id, u := range r.users {
		snapshot[id] = cloneUser(u)
	}
	r.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		r.mu.Lock()
		r.users = snapshot
		r.mu.Unlock()
	}
	return err
}

func (r *memUserRepo) Transactional() bool {
	return r.tx
}

type memNotifications struct {
	mu   sync.Mutex
	list []*model.Notification
	err  error
}

func (n *memNotifications) Create(_ context.Context, notification *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	n.list = append(n.list, notification)
	return nil
}

func (n *memNotifications) CreateNotification(ctx context.Context, notification *model.Notification) error {
	return n.Create(ctx, notification)
}

func (n *memNotifications) GetNotificationList(_ context.Context, to primitive.ObjectID, limit, offset int64) ([]*model.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var res []*model.Notification
	for i := len(n.list) - 1; i >= 0; i-- {
		if n.list[i].To == to {
			res = append(res, n.list[i])
		}
	}
	if offset >= int64(len(res)) {
		return []*model.Notification{}, nil
	}
	return res[offset:min(offset+limit, int64(len(res)))], nil
}

func (n *memNotifications) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.list)
}

type fakeCache struct {
	mu          sync.Mutex
	users       map[string]*model.User
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: map[string]*model.User{}}
}

func (c *fakeCache) Get(_ context.Context, username string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users[username], nil
}

func (c *fakeCache) Set(_ context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.Username] = user
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, usernames ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range usernames {
		delete(c.users, name)
	}
	c.invalidated = append(c.invalidated, usernames...)
	return nil
}

type fakeDirty struct {
	mu      sync.Mutex
	pairs   []redis.FollowPair
	cleared []redis.FollowPair
}

func (d *fakeDirty) Mark(_ context.Context, pair redis.FollowPair) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pairs = append(d.pairs, pair)
	return nil
}

func (d *fakeDirty) Clear(_ context.Context, pair redis.FollowPair) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared = append(d.cleared, pair)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*model.FollowEvent
	err    error
}

func (p *fakePublisher) PublishFollowEvent(_ context.Context, event *model.FollowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeProvider struct {
	profiles map[string]*identity.Profile
	barrier  *sync.WaitGroup
}

func (p *fakeProvider) VerifyToken(_ context.Context, token string) (string, error) {
	return token, nil
}

func (p *fakeProvider) FetchProfile(_ context.Context, externalID string) (*identity.Profile, error) {
	if p.barrier != nil {
		p.barrier.Done()
		p.barrier.Wait()
	}
	profile, ok := p.profiles[externalID]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return profile, nil
}

type fakeUserES struct {
	mu      sync.Mutex
	indexed map[string]*es.UserES
	results []*es.UserES
}

func newFakeUserES() *fakeUserES {
	return &fakeUserES{indexed: map[string]*es.UserES{}}
}

func (f *fakeUserES) IndexUser(_ context.Context, user *es.UserES, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[user.ID] = user
	return nil
}

func (f *fakeUserES) SearchUsers(_ context.Context, _ string, from, size int) ([]*es.UserES, error) {
	if from >= len(f.results) {
		return []*es.UserES{}, nil
	}
	return f.results[from:min(from+size, len(f.results))], nil
}

type uploaded struct {
	name        string
	contentType string
	data        []byte
}

type fakeImageStore struct {
	files   []uploaded
	deleted []string
}

func (f *fakeImageStore) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.files = append(f.files, uploaded{name: objectName, contentType: contentType, data: data})
	return objectName, nil
}

func (f *fakeImageStore) GetPublicURL(objectName string) string {
	return "https://cdn.example.com/hearth/" + objectName
}

func (f *fakeImageStore) DeleteFile(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	return nil
}
