package service

import (
	"context"
	"fmt"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// RatingProjector keeps product rating aggregates and cached products in
// step with REVIEW_SUBMITTED events, including those from other instances.
type RatingProjector struct {
	repo   repository.Repository
	cache  ProductCache
	logger *zap.Logger
}

// NewRatingProjector creates a new rating projector
func NewRatingProjector(repo repository.Repository, cache ProductCache) *RatingProjector {
	if cache == nil {
		cache = NoopCache()
	}
	return &RatingProjector{
		repo:   repo,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// HandleReviewSubmitted recomputes the rating of the reviewed product.
// Redelivered events are skipped.
func (p *RatingProjector) HandleReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	ctx, span := util.StartSpan(ctx, "RatingProjector.HandleReviewSubmitted")
	defer span.End()

	processed, err := p.repo.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		p.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	err = p.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if err := tx.RefreshProductRating(ctx, event.ProductID); err != nil {
			return err
		}
		return tx.MarkEventProcessed(ctx, event.EventID, event.EventType)
	})
	if err != nil {
		return fmt.Errorf("failed to refresh rating of product %d: %w", event.ProductID, err)
	}

	if err := p.cache.InvalidateProducts(ctx, event.ProductID); err != nil {
		p.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}

	p.logger.Debug("Product rating refreshed",
		zap.Int64("product_id", event.ProductID),
		zap.String("event_id", event.EventID))
	return nil
}
