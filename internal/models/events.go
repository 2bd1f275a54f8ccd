package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeShopFollowed       = "SHOP_FOLLOWED"
	EventTypeShopUnfollowed     = "SHOP_UNFOLLOWED"
	EventTypeReviewSubmitted    = "REVIEW_SUBMITTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Type lets transports label a message without decoding it.
func (e BaseEvent) Type() string {
	return e.EventType
}

// OrderCreatedEvent published after a successful checkout
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	ShopIDs     []int64         `json:"shop_ids"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when a shop owner or customer moves an order
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64       `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedBy int64       `json:"changed_by"`
}

// FollowEvent published on follow and unfollow
type FollowEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
	ShopID int64 `json:"shop_id"`
}

// ReviewSubmittedEvent published when a review is created or updated
type ReviewSubmittedEvent struct {
	BaseEvent
	ReviewID  int64 `json:"review_id"`
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	Rating    int   `json:"rating"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64 `json:"product_id"`
	ShopID    int64 `json:"shop_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
