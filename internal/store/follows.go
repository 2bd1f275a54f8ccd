package store

import (
	"context"

	"marketplace-service/internal/models"
)

// CreateFollow inserts a follow; the primary key rejects duplicates with a Conflict
func (s *Store) CreateFollow(ctx context.Context, userID, shopID int64) error {
	_, err := s.exec(ctx, "INSERT INTO follows (user_id, shop_id) VALUES ($1, $2)", userID, shopID)
	return classify(err, "follow")
}

// DeleteFollow deletes a follow and reports whether one existed
func (s *Store) DeleteFollow(ctx context.Context, userID, shopID int64) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM follows WHERE user_id = $1 AND shop_id = $2", userID, shopID)
	if err != nil {
		return false, classify(err, "follow")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IsFollowing checks whether the user follows the shop
func (s *Store) IsFollowing(ctx context.Context, userID, shopID int64) (bool, error) {
	var exists bool
	err := s.get(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = $1 AND shop_id = $2)", userID, shopID)
	return exists, classify(err, "follow")
}

// ListFollowers lists the users following a shop, most recent first
func (s *Store) ListFollowers(ctx context.Context, shopID int64) ([]models.User, error) {
	users := []models.User{}
	err := s.selectAll(ctx, &users, `
		SELECT u.id, u.email, u.name, u.role, u.phone, u.address, u.avatar_url, u.created_at, u.updated_at
		FROM follows f
		JOIN users u ON u.id = f.user_id
		WHERE f.shop_id = $1
		ORDER BY f.created_at DESC`, shopID)
	return users, classify(err, "followers")
}

// ListFollowedShops lists the shops a user follows, most recent first
func (s *Store) ListFollowedShops(ctx context.Context, userID int64) ([]models.Shop, error) {
	shops := []models.Shop{}
	err := s.selectAll(ctx, &shops, shopSelect+`
		JOIN follows fl ON fl.shop_id = s.id
		WHERE fl.user_id = $1
		ORDER BY fl.created_at DESC`, userID)
	return shops, classify(err, "shops")
}
