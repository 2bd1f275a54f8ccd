package store

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

const userColumns = `id, email, name, role, phone, address, avatar_url, created_at, updated_at`

// UpsertUser inserts the user or refreshes email and role of an existing one.
// A locally edited name is kept.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END,
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING ` + userColumns

	return classify(s.get(ctx, user, query, user.ID, user.Email, user.Name, user.Role), "user")
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.get(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		return nil, classify(err, "user")
	}
	return &user, nil
}

// UpdateUserProfile updates the editable profile fields
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, input models.ProfileInput) (*models.User, error) {
	var user models.User
	err := s.get(ctx, &user, `
		UPDATE users SET name = $1, phone = $2, address = $3, avatar_url = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+userColumns,
		input.Name, input.Phone, input.Address, input.AvatarURL, id)
	if err != nil {
		return nil, classify(err, "user")
	}
	return &user, nil
}

// ListUsers lists users ordered by id
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	err := s.selectAll(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	return users, classify(err, "users")
}

// DeleteUser removes a user and, by cascade, their shop, cart, follows and reviews
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	var hasOrders bool
	if err := s.get(ctx, &hasOrders, "SELECT EXISTS(SELECT 1 FROM orders WHERE user_id = $1)", id); err != nil {
		return classify(err, "user")
	}
	if hasOrders {
		return apperr.Conflict("user %d has orders and cannot be deleted", id)
	}

	res, err := s.exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return classify(err, "user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
