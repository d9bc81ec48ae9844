package es

import (
	"context"
	"errors"
	log "log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/versiontype"
	"github.com/goccy/go-json"
)

const MaxSearchDepth = 500

type UserRepo interface {
	IndexUser(ctx context.Context, user *UserES, version int64) error
	SearchUsers(ctx context.Context, keyword string, from, size int) ([]*UserES, error)
}

type UserRepoImpl struct {
	client *elasticsearch.TypedClient
	index  string
}

func NewUserRepo(client *elasticsearch.TypedClient, index string) UserRepo {
	return &UserRepoImpl{client: client, index: index}
}

// IndexUser 外部版本号写入，旧版本的写入会被 ES 拒绝并跳过
func (s *UserRepoImpl) IndexUser(ctx context.Context, user *UserES, version int64) error {
	_, err := s.client.Index(s.index).
		Id(user.ID).
		Document(user).
		Version(strconv.FormatInt(version, 10)).
		VersionType(versiontype.External).
		Do(ctx)

	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == ConflictCode {
			log.WarnContext(ctx, "Version conflict detected, skipping old data",
				"user_id", user.ID,
				"version", version)
			return nil
		}
		return err
	}
	return nil
}

// SearchUsers 按用户名、姓名、简介检索
func (s *UserRepoImpl) SearchUsers(ctx context.Context, keyword string, from, size int) ([]*UserES, error) {
	if from >= MaxSearchDepth || keyword == "" {
		return []*UserES{}, nil
	}

	resp, err := s.client.Search().
		Index(s.index).
		Query(&types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:  keyword,
				Fields: []string{"username^3", "first_name^2", "last_name^2", "bio"},
			},
		}).
		From(from).
		Size(size).
		Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == NotFoundCode {
			return []*UserES{}, nil
		}
		return nil, err
	}

	results := make([]*UserES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var user UserES
		if err = json.Unmarshal(hit.Source_, &user); err != nil {
			log.WarnContext(ctx, "skip malformed user document", "err", err)
			continue
		}
		results = append(results, &user)
	}
	return results, nil
}
