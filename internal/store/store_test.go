package store

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil, "product"))
	assert.True(t, apperr.Is(classify(sql.ErrNoRows, "product"), apperr.KindNotFound))
	assert.True(t, apperr.Is(classify(&pq.Error{Code: "23505"}, "follow"), apperr.KindConflict))
	assert.True(t, apperr.Is(classify(&pq.Error{Code: "23503"}, "user"), apperr.KindConflict))
	assert.True(t, apperr.Is(classify(&pq.Error{Code: "23514"}, "product"), apperr.KindConflict))

	err := classify(sql.ErrConnDone, "order")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

// openTestStore connects to the database named by MARKETPLACE_TEST_DATABASE_URL.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("MARKETPLACE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database (set MARKETPLACE_TEST_DATABASE_URL)")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	_, err = s.db.ExecContext(ctx, `TRUNCATE users, shops, products, carts, cart_items, orders,
		order_items, reviews, follows, processed_events RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func seedProduct(t *testing.T, s *Store, stock int) (*models.User, *models.Product) {
	t.Helper()
	ctx := context.Background()

	owner := &models.User{ID: 1, Email: "owner@example.com", Name: "Owner", Role: models.RoleCustomer}
	require.NoError(t, s.UpsertUser(ctx, owner))
	buyer := &models.User{ID: 2, Email: "buyer@example.com", Name: "Buyer", Role: models.RoleCustomer}
	require.NoError(t, s.UpsertUser(ctx, buyer))

	shop := &models.Shop{OwnerID: owner.ID, Name: "Bakery", Tags: models.StringList{"bread"}}
	require.NoError(t, s.CreateShop(ctx, shop))

	product := &models.Product{ShopID: shop.ID, Name: "Rye", Price: 10, Stock: stock}
	require.NoError(t, s.CreateProduct(ctx, product))
	return buyer, product
}

func TestCartUpsertAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	buyer, product := seedProduct(t, s, 5)

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	again, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, cartID, again)

	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 1))
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 2))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestCartLineBoundAndConsume(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	buyer, product := seedProduct(t, s, 5)

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, models.MaxCartQuantity-1))

	err = s.AddCartItem(ctx, cartID, product.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	snapshot, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 1))
	require.NoError(t, s.ConsumeCartLines(ctx, cartID, snapshot))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestDecrementStockIsConditional(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 2)

	err := s.DecrementStock(ctx, product.ID, 3)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, s.DecrementStock(ctx, product.ID, 2))
	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestRunInTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 5)

	err := s.RunInTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		require.NoError(t, repo.DecrementStock(ctx, product.ID, 4))
		return repo.DecrementStock(ctx, product.ID, 4)
	})
	require.Error(t, err)

	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestConcurrentDecrementNeverNegative(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(ctx, func(ctx context.Context, repo repository.Repository) error {
				p, err := repo.GetProductForUpdate(ctx, product.ID)
				if err != nil {
					return err
				}
				if p.Stock < 1 {
					return apperr.Conflict("insufficient stock")
				}
				return repo.DecrementStock(ctx, product.ID, 1)
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestOrderRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	buyer, product := seedProduct(t, s, 5)

	order := &models.Order{
		UserID:         buyer.ID,
		Status:         models.OrderStatusPending,
		TotalAmount:    30,
		ShippingInfo:   models.ShippingInfo{RecipientName: "B", Phone: "1", Address: "Main St 1", City: "Town"},
		PaymentInfo:    models.PaymentInfo{Method: models.PaymentMethodCashOnDelivery},
		IdempotencyKey: "test-key-123",
		Items: []models.OrderItem{
			{ProductID: product.ID, ShopID: product.ShopID, ProductName: product.Name, Quantity: 3, UnitPrice: 10},
		},
	}
	require.NoError(t, s.CreateOrder(ctx, order))
	assert.NotZero(t, order.ID)

	retrieved, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.UserID, retrieved.UserID)
	assert.Equal(t, "Main St 1", retrieved.ShippingInfo.Address)
	require.Len(t, retrieved.Items, 1)

	byKey, err := s.GetOrderByIdempotencyKey(ctx, buyer.ID, "test-key-123")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	shopOrders, err := s.GetOrdersByShopID(ctx, product.ShopID)
	require.NoError(t, err)
	assert.Len(t, shopOrders, 1)

	err = s.DeleteUser(ctx, buyer.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestFollowUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	buyer, product := seedProduct(t, s, 1)

	require.NoError(t, s.CreateFollow(ctx, buyer.ID, product.ShopID))
	err := s.CreateFollow(ctx, buyer.ID, product.ShopID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	shop, err := s.GetShopByID(ctx, product.ShopID)
	require.NoError(t, err)
	assert.Equal(t, 1, shop.FollowerCount)
}

func TestReviewUpsertAndRating(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	buyer, product := seedProduct(t, s, 1)

	first := &models.Review{UserID: buyer.ID, ProductID: product.ID, Rating: 2}
	require.NoError(t, s.UpsertReview(ctx, first))
	second := &models.Review{UserID: buyer.ID, ProductID: product.ID, Rating: 4, Comment: "better"}
	require.NoError(t, s.UpsertReview(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, s.RefreshProductRating(ctx, product.ID))
	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)
	assert.InDelta(t, 4.0, got.RatingAvg, 0.001)
}
