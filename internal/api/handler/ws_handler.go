package handler

import (
	"Hearth/internal/api/middleware"
	"Hearth/internal/pkg/identity"
	"Hearth/internal/pkg/response"
	"Hearth/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationSubscriber 订阅某个用户的通知频道
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

type WsHandler struct {
	provider   identity.Provider
	userSvc    service.UserService
	subscriber NotificationSubscriber
}

func NewWsHandler(provider identity.Provider, userSvc service.UserService, subscriber NotificationSubscriber) *WsHandler {
	return &WsHandler{
		provider:   provider,
		userSvc:    userSvc,
		subscriber: subscriber,
	}
}

// Connect 浏览器无法为 WebSocket 设置请求头，令牌通过 query 传递
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.ExtractToken(c)
	}
	if token == "" {
		response.Error(c, service.ErrUnauthorized)
		return
	}
	externalID, err := s.provider.VerifyToken(c.Request.Context(), token)
	if err != nil {
		log.WarnContext(c, "WS 鉴权失败", "err", err)
		response.Error(c, service.ErrUnauthorized)
		return
	}
	user, err := s.userSvc.GetCurrentUser(c.Request.Context(), externalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := user.ID.Hex()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c, "WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := s.subscriber.Subscribe(ctx, userID)
	defer func() {
		_ = pubsub.Close()
	}()

	log.InfoContext(c, "用户 WS 连接已建立", "userID", userID)

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	// 写循环：监听 Redis 并推送至客户端
	redisCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.ErrorContext(c, "WS 推送失败", "userID", userID, "err", err)
				return
			}
		case <-stopChan:
			log.InfoContext(c, "用户 WS 连接已断开", "userID", userID)
			return
		}
	}
}
