package store

import (
	"context"

	"marketplace-service/internal/models"
)

const reviewColumns = `id, user_id, product_id, rating, comment, helpful_count, created_at, updated_at`

// UpsertReview creates the review or replaces rating and comment of the existing one
func (s *Store) UpsertReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = NOW()
		RETURNING ` + reviewColumns

	return classify(s.get(ctx, review, query,
		review.UserID, review.ProductID, review.Rating, review.Comment), "review")
}

// ListReviewsByProduct lists reviews, most helpful first
func (s *Store) ListReviewsByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.selectAll(ctx, &reviews,
		"SELECT "+reviewColumns+" FROM reviews WHERE product_id = $1 ORDER BY helpful_count DESC, updated_at DESC",
		productID)
	return reviews, classify(err, "reviews")
}

// IncrementHelpful adds one helpful vote
func (s *Store) IncrementHelpful(ctx context.Context, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := s.get(ctx, &review,
		"UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = $1 RETURNING "+reviewColumns,
		reviewID)
	if err != nil {
		return nil, classify(err, "review")
	}
	return &review, nil
}
