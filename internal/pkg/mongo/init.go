package mongo

import (
	"Hearth/internal/api/config"
	"Hearth/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UserCollection         = "users"
	NotificationCollection = "notifications"
)

// 唯一索引名，重复键错误据此区分冲突字段
const (
	UserExternalIDIndex = "uniq_external_id"
	UserUsernameIndex   = "uniq_username"
)

// InitMongo 建立连接并返回 Database 引用，同时初始化索引
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 建立连接，OperationTimeout 作用于每一次数据库往返
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URL).
		SetTimeout(cfg.OperationTimeout).
		SetMonitor(logger.NewMongoMonitor()),
	)
	if err != nil {
		return nil, err
	}

	// 检查连通性
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	if err = EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	log.Info("MongoDB initialized successfully", "db", cfg.Database, "transactions", cfg.Transactions)
	return db, nil
}

// EnsureIndexes 创建业务依赖的唯一索引，重复创建是幂等的
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UserCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UserExternalIDIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(UserUsernameIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = db.Collection(NotificationCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "to", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_to_created_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
