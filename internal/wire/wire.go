package wire

import (
	"Hearth/internal/api"
	"Hearth/internal/api/config"
	"Hearth/internal/api/handler"
	"Hearth/internal/job"
	"Hearth/internal/pkg/cron"
	"Hearth/internal/pkg/es"
	"Hearth/internal/pkg/identity"
	"Hearth/internal/pkg/kafka"
	"Hearth/internal/pkg/minio"
	"Hearth/internal/pkg/redis"
	"Hearth/internal/repository"
	"Hearth/internal/service"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	KafkaManager *kafka.ConsumerManager
	Producer     *kafka.FollowEventProducer
	CronMgr      *cron.Manager
}

func BuildApplication(
	cfg *config.Config,
	db *mongo.Database,
	rdb *goredis.Client,
	esClient *elasticsearch.TypedClient,
	store *minio.Store,
	provider identity.Provider,
) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db, cfg.Mongo.Transactions)
	notificationRepo := repository.NewNotificationRepo(db)
	userESRepo := es.NewUserRepo(esClient, cfg.Elastic.UserIndex)

	profileCache := redis.NewProfileCache(rdb)
	dirtySet := redis.NewFollowDirtySet(rdb)
	notificationBus := redis.NewNotificationBus(rdb)

	producer, err := kafka.NewFollowEventProducer(cfg)
	if err != nil {
		return nil, err
	}

	userService := service.NewUserService(userRepo, provider, profileCache, userESRepo, store)
	notificationService := service.NewNotificationService(notificationRepo, userRepo)
	userFollowService := service.NewUserFollowService(userRepo, notificationService, profileCache, dirtySet, producer)

	handlers := &api.HandlersGroup{
		Provider:            provider,
		UserHandler:         handler.NewUserHandler(userService),
		UserFollowHandler:   handler.NewUserFollowHandler(userFollowService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		WsHandler:           handler.NewWsHandler(provider, userService, notificationBus),
	}

	router := api.SetupRouter(handlers, cfg.Logstash.Index)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, userRepo, userESRepo, notificationBus)
	if err != nil {
		_ = producer.Close()
		return nil, err
	}

	cronMgr := cron.NewCronManager(cfg.Cron, job.NewFollowReconcileJob(dirtySet, userFollowService))

	return &ApplicationContainer{
		Router:       router,
		KafkaManager: kafkaMgr,
		Producer:     producer,
		CronMgr:      cronMgr,
	}, nil
}
