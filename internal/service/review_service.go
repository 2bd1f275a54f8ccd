package service

import (
	"context"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// ReviewService manages product reviews
type ReviewService struct {
	repo   repository.Repository
	cache  ProductCache
	events EventPublisher
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(repo repository.Repository, cache ProductCache, events EventPublisher) *ReviewService {
	if cache == nil {
		cache = NoopCache()
	}
	if events == nil {
		events = NoopPublisher()
	}
	return &ReviewService{
		repo:   repo,
		cache:  cache,
		events: events,
		logger: util.GetLogger(),
	}
}

// UpsertReview creates the user's review of a product or replaces the
// existing one. The product rating is refreshed in the same transaction.
func (s *ReviewService) UpsertReview(ctx context.Context, userID, productID int64, input models.ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.UpsertReview")
	defer span.End()

	if err := models.Validate(&input); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.GetProductByID(ctx, productID); err != nil {
			return err
		}
		if err := tx.UpsertReview(ctx, review); err != nil {
			return err
		}
		return tx.RefreshProductRating(ctx, productID)
	})
	if err != nil {
		return nil, err
	}

	util.ReviewsSubmittedTotal.Inc()
	if err := s.cache.InvalidateProducts(ctx, productID); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", productID), zap.Error(err))
	}

	event := &models.ReviewSubmittedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeReviewSubmitted),
		ReviewID:  review.ID,
		ProductID: productID,
		UserID:    userID,
		Rating:    review.Rating,
	}
	if err := s.events.PublishReviewSubmitted(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
		s.logger.Error("Failed to publish ReviewSubmitted event", zap.Error(err))
	}
	return review, nil
}

// ListProductReviews lists reviews of a product, most helpful first
func (s *ReviewService) ListProductReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListReviewsByProduct(ctx, productID)
}

// MarkHelpful adds one helpful vote to a review
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID int64) (*models.Review, error) {
	return s.repo.IncrementHelpful(ctx, reviewID)
}
