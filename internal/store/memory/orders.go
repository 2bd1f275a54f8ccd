package memory

import (
	"context"
	"sort"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
)

// GetOrCreateCartID returns the user's cart id, creating the cart on first use.
func (s *Store) GetOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	defer s.lock()()

	if cartID, ok := s.data.carts[userID]; ok {
		return cartID, nil
	}
	if _, ok := s.data.users[userID]; !ok {
		return 0, apperr.Conflict("cart is still referenced by other records")
	}
	cartID := s.data.nextID("cart")
	s.data.carts[userID] = cartID
	return cartID, nil
}

// GetCartLines joins cart items with their products, ordered by item id.
func (s *Store) GetCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	defer s.lock()()

	lines := []models.CartLine{}
	for _, item := range s.data.cartItems {
		if item.CartID != cartID {
			continue
		}
		product, ok := s.data.products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ShopID:      product.ShopID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Stock:       product.Stock,
			Quantity:    item.Quantity,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

// AddCartItem adds quantity to the product line, creating it when missing.
func (s *Store) AddCartItem(ctx context.Context, cartID, productID int64, quantity int) error {
	defer s.lock()()

	if _, ok := s.data.products[productID]; !ok {
		return apperr.Conflict("cart item is still referenced by other records")
	}
	for _, item := range s.data.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			if quantity > models.MaxCartQuantity-item.Quantity {
				return apperr.BadRequest("cart line quantity cannot exceed %d", models.MaxCartQuantity)
			}
			item.Quantity += quantity
			item.UpdatedAt = now()
			return nil
		}
	}

	id := s.data.nextID("cart_item")
	s.data.cartItems[id] = &models.CartItem{
		ID:        id,
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	return nil
}

// GetOwnedCartItem returns the item only when it sits in userID's cart.
func (s *Store) GetOwnedCartItem(ctx context.Context, itemID, userID int64) (*models.CartItem, error) {
	defer s.lock()()

	item, ok := s.data.cartItems[itemID]
	if !ok || s.data.carts[userID] != item.CartID {
		return nil, apperr.NotFound("cart item not found")
	}
	c := *item
	return &c, nil
}

// SetCartItemQuantity overwrites the quantity of a cart item.
func (s *Store) SetCartItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	defer s.lock()()

	if item, ok := s.data.cartItems[itemID]; ok {
		item.Quantity = quantity
		item.UpdatedAt = now()
	}
	return nil
}

// DeleteOwnedCartItem removes the item when it sits in userID's cart.
func (s *Store) DeleteOwnedCartItem(ctx context.Context, itemID, userID int64) error {
	defer s.lock()()

	item, ok := s.data.cartItems[itemID]
	if ok && s.data.carts[userID] == item.CartID {
		delete(s.data.cartItems, itemID)
	}
	return nil
}

// ClearCart removes every item of the cart.
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	defer s.lock()()

	s.clearCartLocked(cartID)
	return nil
}

// ConsumeCartLines removes the checked-out quantities from the cart
func (s *Store) ConsumeCartLines(ctx context.Context, cartID int64, lines []models.CartLine) error {
	defer s.lock()()

	for _, line := range lines {
		item, ok := s.data.cartItems[line.ID]
		if !ok || item.CartID != cartID {
			continue
		}
		if item.Quantity <= line.Quantity {
			delete(s.data.cartItems, line.ID)
			continue
		}
		item.Quantity -= line.Quantity
		item.UpdatedAt = now()
	}
	return nil
}

func (s *Store) clearCartLocked(cartID int64) {
	for id, item := range s.data.cartItems {
		if item.CartID == cartID {
			delete(s.data.cartItems, id)
		}
	}
}

// CreateOrder stores the order with its items.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	defer s.lock()()

	if _, ok := s.data.users[order.UserID]; !ok {
		return apperr.Conflict("order is still referenced by other records")
	}
	if order.IdempotencyKey != "" {
		for _, existing := range s.data.orders {
			if existing.UserID == order.UserID && existing.IdempotencyKey == order.IdempotencyKey {
				return apperr.Conflict("order already exists")
			}
		}
	}

	order.ID = s.data.nextID("order")
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = s.data.nextID("order_item")
		order.Items[i].OrderID = order.ID
	}
	s.data.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetOrderByID returns the order with its items or NotFound.
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	defer s.lock()()

	order, ok := s.data.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	return cloneOrder(order), nil
}

// GetOrderByIdempotencyKey returns the order userID placed under key, or NotFound.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	defer s.lock()()

	for _, order := range s.data.orders {
		if order.UserID == userID && key != "" && order.IdempotencyKey == key {
			return cloneOrder(order), nil
		}
	}
	return nil, apperr.NotFound("order not found")
}

// GetOrdersByUserID lists the orders of a buyer, newest first.
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	defer s.lock()()

	return s.collectOrders(func(o *models.Order) bool { return o.UserID == userID }), nil
}

// GetOrdersByShopID lists the orders holding at least one item of the shop.
func (s *Store) GetOrdersByShopID(ctx context.Context, shopID int64) ([]models.Order, error) {
	defer s.lock()()

	return s.collectOrders(func(o *models.Order) bool { return o.HasItemsFrom(shopID) }), nil
}

func (s *Store) collectOrders(match func(*models.Order) bool) []models.Order {
	orders := []models.Order{}
	for _, order := range s.data.orders {
		if match(order) {
			orders = append(orders, *cloneOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders
}

// UpdateOrderStatus moves the order from one status to another, or Conflict when it moved already.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) error {
	defer s.lock()()

	order, ok := s.data.orders[orderID]
	if !ok || order.Status != from {
		return apperr.Conflict("order %d was modified concurrently", orderID)
	}
	order.Status = to
	order.UpdatedAt = now()
	return nil
}
