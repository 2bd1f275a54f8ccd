package service

import (
	"context"
	"testing"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productInput(name string, price int64, stock int) models.ProductInput {
	return models.ProductInput{Name: name, Price: price, Stock: stock, Category: "food"}
}

func TestCreateShopOncePerUser(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.repo, nil, time.Minute, 20)
	ctx := context.Background()

	_, err := svc.CreateShop(ctx, ownerID, models.ShopInput{Name: "Second"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	shop, err := svc.CreateShop(ctx, buyerID, models.ShopInput{Name: " Corner Shop ", Tags: []string{"local"}})
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", shop.Name)
	assert.Equal(t, models.StringList{"local"}, shop.Tags)

	_, err = svc.CreateShop(ctx, 4, models.ShopInput{})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestUpdateMyShop(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.repo, nil, time.Minute, 20)
	ctx := context.Background()

	shop, err := svc.UpdateMyShop(ctx, ownerID, models.ShopInput{Name: "Bakery & Co", City: "Springfield"})
	require.NoError(t, err)
	assert.Equal(t, f.shop.ID, shop.ID)

	got, err := svc.GetShop(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield", got.City)

	_, err = svc.UpdateMyShop(ctx, buyerID, models.ShopInput{Name: "Nope"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProductOwnership(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	svc := NewCatalogService(f.repo, cache, time.Minute, 20)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ownerID, productInput("Bread", 10, 5))
	require.NoError(t, err)
	assert.Equal(t, f.shop.ID, product.ShopID)

	_, err = svc.UpdateProduct(ctx, otherOwnerID, product.ID, productInput("Stolen", 1, 1))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	err = svc.DeleteProduct(ctx, otherOwnerID, product.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.CreateProduct(ctx, buyerID, productInput("Orphan", 10, 1))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	updated, err := svc.UpdateProduct(ctx, ownerID, product.ID, productInput("Rye Bread", 12, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.Price)
	assert.Contains(t, cache.invalidated, product.ID)

	require.NoError(t, svc.DeleteProduct(ctx, ownerID, product.ID))
	_, err = svc.GetProduct(ctx, product.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProductValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.repo, nil, time.Minute, 20)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ownerID, productInput("Free", 0, 1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.CreateProduct(ctx, ownerID, productInput("Negative", 1, -1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = svc.CreateProduct(ctx, ownerID, productInput("", 1, 1))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestGetProductReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	cache := newMapCache()
	svc := NewCatalogService(f.repo, cache, time.Minute, 20)
	ctx := context.Background()
	bread := f.product(t, f.shop, "Bread", 10, 5)

	got, err := svc.GetProduct(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Name)

	cached, err := cache.GetProduct(ctx, bread.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	// Served from cache even after the row changes underneath.
	require.NoError(t, f.repo.DecrementStock(ctx, bread.ID, 5))
	got, err = svc.GetProduct(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestListProductsPaging(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.repo, nil, time.Minute, 2)
	ctx := context.Background()
	for _, name := range []string{"Bread", "Bagel", "Bun"} {
		f.product(t, f.shop, name, 1, 1)
	}

	page, err := svc.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.ListProducts(ctx, models.ProductFilter{Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	found, err := svc.ListProducts(ctx, models.ProductFilter{Query: "  bag "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bagel", found[0].Name)
}

func TestPage(t *testing.T) {
	limit, offset := Page(0, -3, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, _ = Page(500, 0, 20)
	assert.Equal(t, maxPageLimit, limit)

	limit, _ = Page(0, 0, 0)
	assert.Equal(t, 20, limit)
}
