package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sender is the transport EventPublisher writes to. *Producer implements it.
type Sender interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	sender Sender
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(sender Sender) *EventPublisher {
	return &EventPublisher{sender: sender}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.sender.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.sender.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishFollow publishes ShopFollowed or ShopUnfollowed, keyed by shop
func (ep *EventPublisher) PublishFollow(ctx context.Context, event *models.FollowEvent) error {
	return ep.sender.PublishEvent(ctx, fmt.Sprintf("shop-%d", event.ShopID), event)
}

// PublishReviewSubmitted publishes ReviewSubmitted event, keyed by product
func (ep *EventPublisher) PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	return ep.sender.PublishEvent(ctx, fmt.Sprintf("product-%d", event.ProductID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onReviewSubmitted func(context.Context, *models.ReviewSubmittedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnReviewSubmitted registers a handler for ReviewSubmitted events
func (eh *EventHandler) OnReviewSubmitted(handler func(context.Context, *models.ReviewSubmittedEvent) error) {
	eh.onReviewSubmitted = handler
}

// HandleMessage routes messages to appropriate handlers. Event types without
// a registered handler are acknowledged and skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if eventType, ok := headerValue(msg, EventTypeHeader); ok && !eh.handles(eventType) {
		return nil
	}

	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeReviewSubmitted:
		if eh.onReviewSubmitted != nil {
			var event models.ReviewSubmittedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReviewSubmitted event: %w", err)
			}
			return eh.onReviewSubmitted(ctx, &event)
		}
	}

	return nil
}

func (eh *EventHandler) handles(eventType string) bool {
	return eventType == models.EventTypeReviewSubmitted && eh.onReviewSubmitted != nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
