package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, stock int) (*models.User, *models.Shop, *models.Product) {
	t.Helper()
	ctx := context.Background()

	owner := &models.User{ID: 1, Email: "owner@example.com", Name: "Owner", Role: models.RoleCustomer}
	require.NoError(t, s.UpsertUser(ctx, owner))
	buyer := &models.User{ID: 2, Email: "buyer@example.com", Name: "Buyer", Role: models.RoleCustomer}
	require.NoError(t, s.UpsertUser(ctx, buyer))

	shop := &models.Shop{OwnerID: owner.ID, Name: "Bakery"}
	require.NoError(t, s.CreateShop(ctx, shop))

	product := &models.Product{ShopID: shop.ID, Name: "Rye", Price: 10, Stock: stock}
	require.NoError(t, s.CreateProduct(ctx, product))
	return buyer, shop, product
}

func TestUpsertUserRejectsDuplicateEmail(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, &models.User{ID: 1, Email: "a@example.com"}))
	err := s.UpsertUser(ctx, &models.User{ID: 2, Email: "A@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCartAggregatesAndClears(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, shop, product := seed(t, s, 5)

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 1))
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 2))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, shop.ID, lines[0].ShopID)

	_, err = s.GetOwnedCartItem(ctx, lines[0].ID, 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, s.ClearCart(ctx, cartID))
	lines, err = s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRunInTxRestoresStateOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _, product := seed(t, s, 5)

	err := s.RunInTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		require.NoError(t, repo.DecrementStock(ctx, product.ID, 4))
		return repo.DecrementStock(ctx, product.ID, 4)
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestRunInTxCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _, product := seed(t, s, 5)

	err := s.RunInTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		return repo.DecrementStock(ctx, product.ID, 2)
	})
	require.NoError(t, err)

	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestRunInTxRestoresStateOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _, product := seed(t, s, 5)

	assert.Panics(t, func() {
		_ = s.RunInTx(ctx, func(ctx context.Context, repo repository.Repository) error {
			_ = repo.DecrementStock(ctx, product.ID, 5)
			panic(errors.New("boom"))
		})
	})

	got, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestOrdersByShopAndIdempotencyKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, shop, product := seed(t, s, 5)

	order := &models.Order{
		UserID:         buyer.ID,
		Status:         models.OrderStatusPending,
		TotalAmount:    20,
		IdempotencyKey: "k1",
		Items: []models.OrderItem{
			{ProductID: product.ID, ShopID: shop.ID, ProductName: product.Name, Quantity: 2, UnitPrice: 10},
		},
	}
	require.NoError(t, s.CreateOrder(ctx, order))
	assert.NotZero(t, order.ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	dup := &models.Order{UserID: buyer.ID, Status: models.OrderStatusPending, IdempotencyKey: "k1"}
	assert.True(t, apperr.Is(s.CreateOrder(ctx, dup), apperr.KindConflict))

	byKey, err := s.GetOrderByIdempotencyKey(ctx, buyer.ID, "k1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	shopOrders, err := s.GetOrdersByShopID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, shopOrders, 1)

	otherShop, err := s.GetOrdersByShopID(ctx, shop.ID+1)
	require.NoError(t, err)
	assert.Empty(t, otherShop)

	assert.True(t, apperr.Is(s.DeleteUser(ctx, buyer.ID), apperr.KindConflict))
}

func TestFollowsAndFollowerCount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, shop, _ := seed(t, s, 1)

	require.NoError(t, s.CreateFollow(ctx, buyer.ID, shop.ID))
	assert.True(t, apperr.Is(s.CreateFollow(ctx, buyer.ID, shop.ID), apperr.KindConflict))

	got, err := s.GetShopByID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FollowerCount)

	followers, err := s.ListFollowers(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, buyer.ID, followers[0].ID)

	removed, err := s.DeleteFollow(ctx, buyer.ID, shop.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteFollow(ctx, buyer.ID, shop.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReviewUpsertAndRating(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, _, product := seed(t, s, 1)

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

	helped, err := s.IncrementHelpful(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helped.HelpfulCount)

	_, err = s.IncrementHelpful(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteProductRemovesCartLines(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, shop, product := seed(t, s, 3)

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 1))

	assert.True(t, apperr.Is(s.DeleteProduct(ctx, product.ID, shop.ID+1), apperr.KindNotFound))
	require.NoError(t, s.DeleteProduct(ctx, product.ID, shop.ID))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestListProductsFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, shop, _ := seed(t, s, 1)

	require.NoError(t, s.CreateProduct(ctx, &models.Product{ShopID: shop.ID, Name: "Sourdough", Price: 5, Category: "bread"}))
	require.NoError(t, s.CreateProduct(ctx, &models.Product{ShopID: shop.ID, Name: "Croissant", Price: 3, Category: "pastry"}))

	all, err := s.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bread, err := s.ListProducts(ctx, models.ProductFilter{Category: "bread"})
	require.NoError(t, err)
	require.Len(t, bread, 1)
	assert.Equal(t, "Sourdough", bread[0].Name)

	page, err := s.ListProducts(ctx, models.ProductFilter{Query: "R", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestAddCartItemRejectsOversizedLine(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, _, product := seed(t, s, 5)

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, models.MaxCartQuantity-1))

	err = s.AddCartItem(ctx, cartID, product.ID, math.MaxInt)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	err = s.AddCartItem(ctx, cartID, product.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 1))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.MaxCartQuantity, lines[0].Quantity)
}

func TestConsumeCartLinesKeepsLaterChanges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	buyer, shop, product := seed(t, s, 5)
	other := &models.Product{ShopID: shop.ID, Name: "Spelt", Price: 12, Stock: 5}
	require.NoError(t, s.CreateProduct(ctx, other))

	cartID, err := s.GetOrCreateCartID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 3))

	snapshot, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)

	// changes that land between the read and the removal
	require.NoError(t, s.AddCartItem(ctx, cartID, product.ID, 2))
	require.NoError(t, s.AddCartItem(ctx, cartID, other.ID, 1))

	require.NoError(t, s.ConsumeCartLines(ctx, cartID, snapshot))

	lines, err := s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, product.ID, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, other.ID, lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)

	require.NoError(t, s.ConsumeCartLines(ctx, cartID, lines))
	lines, err = s.GetCartLines(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
