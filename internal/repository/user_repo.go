package repository

import (
	"Hearth/internal/model"
	mongoinit "Hearth/internal/pkg/mongo"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUserFields(ctx context.Context, externalID string, fields bson.M) (*model.User, error)
	SetFollowing(ctx context.Context, userID, targetID primitive.ObjectID, present bool) error
	SetFollower(ctx context.Context, userID, followerID primitive.ObjectID, present bool) (bool, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Transactional() bool
}

type UserRepoImpl struct {
	col   *mongo.Collection
	useTx bool
}

func NewUserRepo(db *mongo.Database, useTx bool) UserRepo {
	return &UserRepoImpl{
		col:   db.Collection(mongoinit.UserCollection),
		useTx: useTx,
	}
}

// GetUserByExternalID 根据身份提供方的 ID 查询，不存在返回 nil, nil
func (s *UserRepoImpl) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"external_id": externalID})
}

// GetUserByID 根据内部 ID 查询，不存在返回 nil, nil
func (s *UserRepoImpl) GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetUserByUsername 根据 username 查询，不存在返回 nil, nil
func (s *UserRepoImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// GetUsersByIDs 批量查询，结果按 ids 的顺序返回，缺失的跳过
func (s *UserRepoImpl) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*model.User
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	byID := make(map[primitive.ObjectID]*model.User, len(list))
	for _, u := range list {
		byID[u.ID] = u
	}
	res := make([]*model.User, 0, len(list))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

// CreateUser 插入新用户，唯一索引冲突转换为 ErrDuplicateExternalID / ErrDuplicateUsername
func (s *UserRepoImpl) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}

	res, err := s.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if duplicateIndex(err) == mongoinit.UserUsernameIndex {
				return ErrDuplicateUsername
			}
			return ErrDuplicateExternalID
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// UpdateUserFields 合并字段并返回更新后的文档，不存在返回 nil, nil
func (s *UserRepoImpl) UpdateUserFields(ctx context.Context, externalID string, fields bson.M) (*model.User, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"external_id": externalID}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

// SetFollowing 在 userID 的 following 集合中加入或移除 targetID
func (s *UserRepoImpl) SetFollowing(ctx context.Context, userID, targetID primitive.ObjectID, present bool) error {
	op := "$pull"
	if present {
		op = "$addToSet"
	}
	update := bson.M{
		op:     bson.M{"following": targetID},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update following: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

// SetFollower 在 userID 的 followers 集合中加入或移除 followerID。
// 条件更新，只有集合真正发生变化才返回 true，并发的同向切换只有一个会成功
func (s *UserRepoImpl) SetFollower(ctx context.Context, userID, followerID primitive.ObjectID, present bool) (bool, error) {
	filter := bson.M{"_id": userID, "followers": followerID}
	update := bson.M{
		"$pull": bson.M{"followers": followerID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	if present {
		filter = bson.M{"_id": userID, "followers": bson.M{"$ne": followerID}}
		update = bson.M{
			"$addToSet": bson.M{"followers": followerID},
			"$set":      bson.M{"updated_at": time.Now()},
		}
	}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("update followers: %w", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// 未命中：已处于目标状态，或用户不存在
	n, err := s.col.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user: %w", err)
	}
	if n == 0 {
		return false, ErrNoMatch
	}
	return false, nil
}

// RunInTx 开启事务时在多文档事务中执行 fn，否则直接执行
func (s *UserRepoImpl) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.useTx {
		return fn(ctx)
	}

	sess, err := s.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Transactional RunInTx 失败时存储层是否已经回滚
func (s *UserRepoImpl) Transactional() bool {
	return s.useTx
}

// duplicateIndex 从重复键错误中取出冲突的索引名
func duplicateIndex(err error) string {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return ""
	}
	for _, e := range we.WriteErrors {
		if e.Code != 11000 {
			continue
		}
		_, rest, ok := strings.Cut(e.Message, "index: ")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, " ")
		return name
	}
	return ""
}

func (s *UserRepoImpl) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
