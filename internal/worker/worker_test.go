package worker

import (
	"context"
	"encoding/json"
	"testing"

	"marketplace-service/internal/models"
	"marketplace-service/internal/service"
	"marketplace-service/internal/store/memory"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandlerRefreshesRating(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore()
	require.NoError(t, repo.UpsertUser(ctx, &models.User{ID: 1, Email: "o@example.com"}))
	shop := &models.Shop{OwnerID: 1, Name: "Bakery"}
	require.NoError(t, repo.CreateShop(ctx, shop))
	product := &models.Product{ShopID: shop.ID, Name: "Bread", Price: 10, Stock: 1}
	require.NoError(t, repo.CreateProduct(ctx, product))
	require.NoError(t, repo.UpsertReview(ctx, &models.Review{UserID: 1, ProductID: product.ID, Rating: 5}))

	handler := NewEventHandler(service.NewRatingProjector(repo, nil))

	raw, err := json.Marshal(&models.ReviewSubmittedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeReviewSubmitted),
		ProductID: product.ID,
		Rating:    5,
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleMessage(ctx, kafka.Message{Value: raw}))

	got, err := repo.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)
	assert.InDelta(t, 5.0, got.RatingAvg, 0.001)
}
