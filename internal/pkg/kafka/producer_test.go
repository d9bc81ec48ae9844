package kafka

import (
	"Hearth/internal/model"
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFollowEvent(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "a:b" {
			return errors.New("unexpected key " + string(key))
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event model.FollowEvent
		if err = json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.Type != model.FollowEventFollow {
			return errors.New("unexpected type")
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newFollowEventProducer(mock, "follow-events")
	event := &model.FollowEvent{Type: model.FollowEventFollow, FollowerID: "a", FolloweeID: "b"}

	require.NoError(t, p.PublishFollowEvent(context.Background(), event))
	assert.ErrorIs(t, p.PublishFollowEvent(context.Background(), event), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
