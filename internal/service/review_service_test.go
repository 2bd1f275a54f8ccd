package service

import (
	"context"
	"testing"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertReviewReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	cache := newMapCache()
	svc := NewReviewService(f.repo, cache, publisher)
	ctx := context.Background()
	bread := f.product(t, f.shop, "Bread", 10, 5)

	first, err := svc.UpsertReview(ctx, buyerID, bread.ID, models.ReviewInput{Rating: 2})
	require.NoError(t, err)
	second, err := svc.UpsertReview(ctx, buyerID, bread.ID, models.ReviewInput{Rating: 5, Comment: "Much better"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.UpsertReview(ctx, ownerID, bread.ID, models.ReviewInput{Rating: 3})
	require.NoError(t, err)

	reviews, err := svc.ListProductReviews(ctx, bread.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	product, err := f.repo.GetProductByID(ctx, bread.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, product.RatingCount)
	assert.InDelta(t, 4.0, product.RatingAvg, 0.001)

	assert.Len(t, publisher.reviews, 3)
	assert.Contains(t, cache.invalidated, bread.ID)
}

func TestUpsertReviewValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewReviewService(f.repo, nil, nil)
	ctx := context.Background()
	bread := f.product(t, f.shop, "Bread", 10, 5)

	_, err := svc.UpsertReview(ctx, buyerID, bread.ID, models.ReviewInput{Rating: 6})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = svc.UpsertReview(ctx, buyerID, bread.ID, models.ReviewInput{Rating: 0})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = svc.UpsertReview(ctx, buyerID, 999, models.ReviewInput{Rating: 4})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMarkHelpful(t *testing.T) {
	f := newFixture(t)
	svc := NewReviewService(f.repo, nil, nil)
	ctx := context.Background()
	bread := f.product(t, f.shop, "Bread", 10, 5)

	review, err := svc.UpsertReview(ctx, buyerID, bread.ID, models.ReviewInput{Rating: 4})
	require.NoError(t, err)

	_, err = svc.MarkHelpful(ctx, review.ID)
	require.NoError(t, err)
	voted, err := svc.MarkHelpful(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, voted.HelpfulCount)

	_, err = svc.MarkHelpful(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
