package service

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// CartService manages the per-user cart that precedes checkout
type CartService struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repo repository.Repository) *CartService {
	return &CartService{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use
func (s *CartService) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetOrCreateCart")
	defer span.End()

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadCart(ctx, cartID, userID)
}

// AddToCart adds quantity of a product, merging with an existing line. A
// merged line may not exceed MaxCartQuantity. Stock is not checked here;
// checkout does that.
func (s *CartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddToCart")
	defer span.End()

	if quantity < 1 || quantity > models.MaxCartQuantity {
		return nil, apperr.BadRequest("quantity must be between 1 and %d", models.MaxCartQuantity)
	}
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddCartItem(ctx, cartID, productID, quantity); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Cart item added",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))

	return s.loadCart(ctx, cartID, userID)
}

// UpdateCartItem sets the quantity of a line. A quantity of zero or less
// removes the line.
func (s *CartService) UpdateCartItem(ctx context.Context, cartItemID int64, quantity int, userID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateCartItem")
	defer span.End()

	if quantity > models.MaxCartQuantity {
		return nil, apperr.BadRequest("quantity must be at most %d", models.MaxCartQuantity)
	}
	item, err := s.repo.GetOwnedCartItem(ctx, cartItemID, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.repo.DeleteOwnedCartItem(ctx, cartItemID, userID); err != nil {
			return nil, err
		}
		util.CartMutationsTotal.WithLabelValues("remove").Inc()
	} else {
		if err := s.repo.SetCartItemQuantity(ctx, cartItemID, quantity); err != nil {
			return nil, err
		}
		util.CartMutationsTotal.WithLabelValues("update").Inc()
	}

	return s.loadCart(ctx, item.CartID, userID)
}

// RemoveFromCart deletes a line. Removing a line that is already gone succeeds.
func (s *CartService) RemoveFromCart(ctx context.Context, cartItemID, userID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveFromCart")
	defer span.End()

	if err := s.repo.DeleteOwnedCartItem(ctx, cartItemID, userID); err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues("remove").Inc()

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadCart(ctx, cartID, userID)
}

// ClearCart empties the user's cart
func (s *CartService) ClearCart(ctx context.Context, userID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	cartID, err := s.repo.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearCart(ctx, cartID); err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues("clear").Inc()

	return models.NewCart(cartID, userID, nil), nil
}

func (s *CartService) loadCart(ctx context.Context, cartID, userID int64) (*models.Cart, error) {
	lines, err := s.repo.GetCartLines(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return models.NewCart(cartID, userID, lines), nil
}
