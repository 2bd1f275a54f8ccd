package memory

import (
	"context"
	"sort"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// CreateFollow records a follow, or Conflict when it exists.
func (s *Store) CreateFollow(ctx context.Context, userID, shopID int64) error {
	defer s.lock()()

	if _, ok := s.data.shops[shopID]; !ok {
		return apperr.Conflict("follow is still referenced by other records")
	}
	key := followKey{userID: userID, shopID: shopID}
	if _, ok := s.data.follows[key]; ok {
		return apperr.Conflict("follow already exists")
	}
	s.data.follows[key] = now()
	return nil
}

// DeleteFollow reports whether a follow was removed.
func (s *Store) DeleteFollow(ctx context.Context, userID, shopID int64) (bool, error) {
	defer s.lock()()

	key := followKey{userID: userID, shopID: shopID}
	if _, ok := s.data.follows[key]; !ok {
		return false, nil
	}
	delete(s.data.follows, key)
	return true, nil
}

// IsFollowing reports whether userID follows shopID.
func (s *Store) IsFollowing(ctx context.Context, userID, shopID int64) (bool, error) {
	defer s.lock()()

	_, ok := s.data.follows[followKey{userID: userID, shopID: shopID}]
	return ok, nil
}

// ListFollowers lists the users following the shop, latest follow first.
func (s *Store) ListFollowers(ctx context.Context, shopID int64) ([]models.User, error) {
	defer s.lock()()

	type follower struct {
		user models.User
		key  followKey
	}
	followers := []follower{}
	for key := range s.data.follows {
		if key.shopID != shopID {
			continue
		}
		if user, ok := s.data.users[key.userID]; ok {
			followers = append(followers, follower{user: *cloneUser(user), key: key})
		}
	}
	sort.Slice(followers, func(i, j int) bool {
		return s.data.follows[followers[i].key].After(s.data.follows[followers[j].key])
	})

	users := make([]models.User, 0, len(followers))
	for _, f := range followers {
		users = append(users, f.user)
	}
	return users, nil
}

// ListFollowedShops lists the shops userID follows.
func (s *Store) ListFollowedShops(ctx context.Context, userID int64) ([]models.Shop, error) {
	defer s.lock()()

	shops := []models.Shop{}
	for key := range s.data.follows {
		if key.userID != userID {
			continue
		}
		if shop, ok := s.data.shops[key.shopID]; ok {
			shops = append(shops, *s.shopView(shop))
		}
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })
	return shops, nil
}

// UpsertReview creates or replaces the user's review of a product.
func (s *Store) UpsertReview(ctx context.Context, review *models.Review) error {
	defer s.lock()()

	if _, ok := s.data.products[review.ProductID]; !ok {
		return apperr.Conflict("review is still referenced by other records")
	}

	for _, existing := range s.data.reviews {
		if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
			existing.Rating = review.Rating
			existing.Comment = review.Comment
			existing.UpdatedAt = now()
			*review = *existing
			return nil
		}
	}

	created := *review
	created.ID = s.data.nextID("review")
	created.HelpfulCount = 0
	created.CreatedAt = now()
	created.UpdatedAt = created.CreatedAt
	s.data.reviews[created.ID] = &created
	*review = created
	return nil
}

// ListReviewsByProduct lists reviews of a product, most helpful first.
func (s *Store) ListReviewsByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	defer s.lock()()

	reviews := []models.Review{}
	for _, review := range s.data.reviews {
		if review.ProductID == productID {
			reviews = append(reviews, *review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].HelpfulCount != reviews[j].HelpfulCount {
			return reviews[i].HelpfulCount > reviews[j].HelpfulCount
		}
		return reviews[i].ID > reviews[j].ID
	})
	return reviews, nil
}

// IncrementHelpful bumps the helpful counter of a review.
func (s *Store) IncrementHelpful(ctx context.Context, reviewID int64) (*models.Review, error) {
	defer s.lock()()

	review, ok := s.data.reviews[reviewID]
	if !ok {
		return nil, apperr.NotFound("review not found")
	}
	review.HelpfulCount++
	c := *review
	return &c, nil
}

// IsEventProcessed reports whether the event id was marked.
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	defer s.lock()()

	_, ok := s.data.processed[eventID]
	return ok, nil
}

// MarkEventProcessed records the event id so redelivery is skipped.
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	defer s.lock()()

	s.data.processed[eventID] = eventType
	return nil
}
