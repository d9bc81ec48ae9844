package kafka

import (
	"Hearth/internal/model"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
	maxRetry     = 5
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// errSkip 消息无法处理，直接跳过不重试
var errSkip = errors.New("skip message")

// pullMessageBatch 拉取一批消息并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，失败时指数退避重试，提交最后一条的位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)

		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			retryInterval := 100 * time.Millisecond

			for attempt := 1; ; attempt++ {
				err := logic(session.Context(), m)
				if err == nil {
					return
				}
				if errors.Is(err, errSkip) || attempt >= maxRetry {
					log.Error("drop message", "topic", m.Topic, "offset", m.Offset, "err", err)
					return
				}

				log.Error("process message error", "err", err, "attempt", attempt)
				select {
				case <-session.Context().Done():
					return
				case <-time.After(retryInterval):
				}

				retryInterval *= 2
				if retryInterval > 5*time.Second {
					retryInterval = 5 * time.Second
				}
			}
		}(msg)
	}

	wg.Wait()

	if len(messages) > 0 {
		session.MarkMessage(messages[len(messages)-1], "")
		session.Commit()
	}
}

// ToFollowEvent 将kafka消息解码为关注事件
func ToFollowEvent(msg *sarama.ConsumerMessage) (*model.FollowEvent, error) {
	var event model.FollowEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, errors.Join(errSkip, err)
	}
	if event.FollowerID == "" || event.FolloweeID == "" {
		return nil, errors.Join(errSkip, errors.New("follow event missing user id"))
	}
	return &event, nil
}
