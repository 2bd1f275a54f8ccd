package service

import (
	"context"
	"time"

	"marketplace-service/internal/models"
)

// ProductCache is a read-through cache for single product lookups.
// *redisclient.Client implements it.
type ProductCache interface {
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	InvalidateProducts(ctx context.Context, productIDs ...int64) error
}

// Locker hands out short-lived exclusive locks. *redisclient.Client implements it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// EventPublisher publishes domain events. *broker.EventPublisher implements it.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishFollow(ctx context.Context, event *models.FollowEvent) error
	PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error
}

type noopCache struct{}

func (noopCache) GetProduct(context.Context, int64) (*models.Product, error)       { return nil, nil }
func (noopCache) SetProduct(context.Context, *models.Product, time.Duration) error { return nil }
func (noopCache) InvalidateProducts(context.Context, ...int64) error               { return nil }

type noopLocker struct{}

func (noopLocker) AcquireLock(context.Context, string, time.Duration) (string, bool, error) {
	return "", true, nil
}
func (noopLocker) ReleaseLock(context.Context, string, string) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishOrderCreated(context.Context, *models.OrderCreatedEvent) error {
	return nil
}
func (noopPublisher) PublishOrderStatusChanged(context.Context, *models.OrderStatusChangedEvent) error {
	return nil
}
func (noopPublisher) PublishFollow(context.Context, *models.FollowEvent) error { return nil }
func (noopPublisher) PublishReviewSubmitted(context.Context, *models.ReviewSubmittedEvent) error {
	return nil
}

// NoopCache, NoopLocker and NoopPublisher stand in when Redis or Kafka are
// not configured.
func NoopCache() ProductCache       { return noopCache{} }
func NoopLocker() Locker            { return noopLocker{} }
func NoopPublisher() EventPublisher { return noopPublisher{} }

const maxPageLimit = 100

// Page normalizes limit/offset query parameters.
func Page(limit, offset, defaultLimit int) (int, int) {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
