package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketplace-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	keys   []string
	events []interface{}
}

func (r *recordingSender) PublishEvent(ctx context.Context, key string, event interface{}) error {
	r.keys = append(r.keys, key)
	r.events = append(r.events, event)
	return nil
}

func TestPublisherKeys(t *testing.T) {
	sender := &recordingSender{}
	ep := NewEventPublisher(sender)
	ctx := context.Background()

	require.NoError(t, ep.PublishOrderCreated(ctx, &models.OrderCreatedEvent{OrderID: 4}))
	require.NoError(t, ep.PublishOrderStatusChanged(ctx, &models.OrderStatusChangedEvent{OrderID: 4}))
	require.NoError(t, ep.PublishFollow(ctx, &models.FollowEvent{ShopID: 9}))
	require.NoError(t, ep.PublishReviewSubmitted(ctx, &models.ReviewSubmittedEvent{ProductID: 3}))

	assert.Equal(t, []string{"order-4", "order-4", "shop-9", "product-3"}, sender.keys)
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestHandleMessageRoutesReviewSubmitted(t *testing.T) {
	eh := NewEventHandler()
	var got *models.ReviewSubmittedEvent
	eh.OnReviewSubmitted(func(ctx context.Context, e *models.ReviewSubmittedEvent) error {
		got = e
		return nil
	})

	event := &models.ReviewSubmittedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeReviewSubmitted),
		ReviewID:  1,
		ProductID: 2,
		Rating:    5,
	}
	require.NoError(t, eh.HandleMessage(context.Background(), message(t, event)))
	require.NotNil(t, got)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, int64(2), got.ProductID)
}

func TestHandleMessagePropagatesHandlerError(t *testing.T) {
	eh := NewEventHandler()
	eh.OnReviewSubmitted(func(ctx context.Context, e *models.ReviewSubmittedEvent) error {
		return errors.New("store down")
	})

	event := &models.ReviewSubmittedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeReviewSubmitted)}
	assert.Error(t, eh.HandleMessage(context.Background(), message(t, event)))
}

func TestHandleMessageSkipsOtherEvents(t *testing.T) {
	eh := NewEventHandler()
	event := &models.FollowEvent{BaseEvent: models.NewBaseEvent(models.EventTypeShopFollowed)}
	assert.NoError(t, eh.HandleMessage(context.Background(), message(t, event)))

	assert.Error(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}

func TestHandleMessageSkipsByHeaderWithoutDecoding(t *testing.T) {
	eh := NewEventHandler()
	called := false
	eh.OnReviewSubmitted(func(ctx context.Context, e *models.ReviewSubmittedEvent) error {
		called = true
		return nil
	})

	msg := kafka.Message{
		Value:   []byte("opaque"),
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(models.EventTypeOrderCreated)}},
	}
	assert.NoError(t, eh.HandleMessage(context.Background(), msg))
	assert.False(t, called)
}

func TestEventsExposeType(t *testing.T) {
	var event interface{} = &models.FollowEvent{BaseEvent: models.NewBaseEvent(models.EventTypeShopFollowed)}
	typed, ok := event.(typedEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeShopFollowed, typed.Type())
}
