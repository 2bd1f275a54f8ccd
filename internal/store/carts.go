package store

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// GetOrCreateCartID returns the user's cart id, creating the cart on first use
func (s *Store) GetOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	var cartID int64
	err := s.get(ctx, &cartID, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`, userID)
	return cartID, classify(err, "cart")
}

// GetCartLines returns cart items joined with current product data
func (s *Store) GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := s.selectAll(ctx, &lines, `
		SELECT ci.id, ci.product_id, p.shop_id, p.name AS product_name, p.price AS unit_price,
			p.stock, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`, cartID)
	return lines, classify(err, "cart items")
}

// AddCartItem inserts a line or adds to the quantity of the existing one.
// A sum above models.MaxCartQuantity leaves the line unchanged.
func (s *Store) AddCartItem(ctx context.Context, cartID, productID int64, quantity int) error {
	res, err := s.exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = NOW()
		WHERE cart_items.quantity <= $4 - EXCLUDED.quantity`,
		cartID, productID, quantity, models.MaxCartQuantity)
	if err != nil {
		return classify(err, "cart item")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.BadRequest("cart line quantity cannot exceed %d", models.MaxCartQuantity)
	}
	return nil
}

// GetOwnedCartItem retrieves a cart item only if it is in the user's cart
func (s *Store) GetOwnedCartItem(ctx context.Context, itemID, userID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.get(ctx, &item, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1 AND c.user_id = $2`, itemID, userID)
	if err != nil {
		return nil, classify(err, "cart item")
	}
	return &item, nil
}

// SetCartItemQuantity overwrites the quantity of a cart item
func (s *Store) SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	_, err := s.exec(ctx,
		"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2", quantity, itemID)
	return classify(err, "cart item")
}

// DeleteOwnedCartItem deletes a cart item if it is in the user's cart
func (s *Store) DeleteOwnedCartItem(ctx context.Context, itemID, userID int64) error {
	_, err := s.exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND ci.id = $1 AND c.user_id = $2`, itemID, userID)
	return classify(err, "cart item")
}

// ClearCart removes every item from the cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	_, err := s.exec(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	return classify(err, "cart")
}

// ConsumeCartLines removes the checked-out quantities from the cart
func (s *Store) ConsumeCartLines(ctx context.Context, cartID int64, lines []models.CartLine) error {
	for _, line := range lines {
		if _, err := s.exec(ctx, `
			DELETE FROM cart_items
			WHERE id = $1 AND cart_id = $2 AND quantity <= $3`,
			line.ID, cartID, line.Quantity); err != nil {
			return classify(err, "cart item")
		}
		if _, err := s.exec(ctx, `
			UPDATE cart_items SET quantity = quantity - $3, updated_at = NOW()
			WHERE id = $1 AND cart_id = $2 AND quantity > $3`,
			line.ID, cartID, line.Quantity); err != nil {
			return classify(err, "cart item")
		}
	}
	return nil
}
