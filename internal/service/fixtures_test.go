package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store/memory"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu            sync.Mutex
	created       []*models.OrderCreatedEvent
	statusChanged []*models.OrderStatusChangedEvent
	follows       []*models.FollowEvent
	reviews       []*models.ReviewSubmittedEvent
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, e *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, e *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanged = append(p.statusChanged, e)
	return nil
}

func (p *recordingPublisher) PublishFollow(ctx context.Context, e *models.FollowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follows = append(p.follows, e)
	return nil
}

func (p *recordingPublisher) PublishReviewSubmitted(ctx context.Context, e *models.ReviewSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reviews = append(p.reviews, e)
	return nil
}

type mapCache struct {
	mu          sync.Mutex
	products    map[int64]models.Product
	invalidated []int64
}

func newMapCache() *mapCache {
	return &mapCache{products: make(map[int64]models.Product)}
}

func (c *mapCache) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *mapCache) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = *product
	return nil
}

func (c *mapCache) InvalidateProducts(ctx context.Context, productIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range productIDs {
		delete(c.products, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type heldLocker struct{}

func (heldLocker) AcquireLock(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (heldLocker) ReleaseLock(context.Context, string, string) error { return nil }

const (
	ownerID      int64 = 1
	buyerID      int64 = 2
	otherOwnerID int64 = 3
)

type fixture struct {
	repo      *memory.Store
	shop      *models.Shop
	otherShop *models.Shop
}

// newFixture seeds two shop owners, a buyer and one shop per owner.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewStore()

	for _, u := range []*models.User{
		{ID: ownerID, Email: "owner@example.com", Name: "Owner", Role: models.RoleCustomer},
		{ID: buyerID, Email: "buyer@example.com", Name: "Buyer", Role: models.RoleCustomer},
		{ID: otherOwnerID, Email: "other@example.com", Name: "Other", Role: models.RoleCustomer},
	} {
		require.NoError(t, repo.UpsertUser(ctx, u))
	}

	shop := &models.Shop{OwnerID: ownerID, Name: "Bakery"}
	require.NoError(t, repo.CreateShop(ctx, shop))
	otherShop := &models.Shop{OwnerID: otherOwnerID, Name: "Dairy"}
	require.NoError(t, repo.CreateShop(ctx, otherShop))

	return &fixture{repo: repo, shop: shop, otherShop: otherShop}
}

func (f *fixture) product(t *testing.T, shop *models.Shop, name string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{ShopID: shop.ID, Name: name, Price: price, Stock: stock}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.repo.GetProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func validOrderRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		ShippingInfo: models.ShippingInfo{
			RecipientName: "Buyer",
			Phone:         "555-0100",
			Address:       "1 Main St",
			City:          "Springfield",
		},
		PaymentInfo: models.PaymentInfo{Method: models.PaymentMethodCashOnDelivery},
	}
}
