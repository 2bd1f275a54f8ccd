package store

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `o.id, o.user_id, o.status, o.total_amount, o.shipping_info, o.payment_info,
	COALESCE(o.idempotency_key, '') AS idempotency_key, o.created_at, o.updated_at`

// CreateOrder inserts an order and its items
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, total_amount, shipping_info, payment_info, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at, updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		order.UserID, order.Status, order.TotalAmount, order.ShippingInfo, order.PaymentInfo, order.IdempotencyKey)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return classify(err, "order")
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := s.get(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, shop_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			item.OrderID, item.ProductID, item.ShopID, item.ProductName, item.Quantity, item.UnitPrice)
		if err != nil {
			return classify(err, "order item")
		}
	}

	return nil
}

// GetOrderByID retrieves an order with its items
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := s.get(ctx, &order, "SELECT "+orderColumns+" FROM orders o WHERE o.id = $1", id); err != nil {
		return nil, classify(err, "order")
	}

	orders := []models.Order{order}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrderByIdempotencyKey retrieves the user's order created with the key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	var order models.Order
	err := s.get(ctx, &order,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = $1 AND o.idempotency_key = $2", userID, key)
	if err != nil {
		return nil, classify(err, "order")
	}

	orders := []models.Order{order}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrdersByUserID retrieves orders placed by a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.selectAll(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC", userID)
	if err != nil {
		return nil, classify(err, "orders")
	}
	return orders, s.attachItems(ctx, orders)
}

// GetOrdersByShopID retrieves orders containing at least one item of the shop.
// Items of other shops are included; callers project them away.
func (s *Store) GetOrdersByShopID(ctx context.Context, shopID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.selectAll(ctx, &orders, `
		SELECT `+orderColumns+` FROM orders o
		WHERE EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.shop_id = $1)
		ORDER BY o.created_at DESC, o.id DESC`, shopID)
	if err != nil {
		return nil, classify(err, "orders")
	}
	return orders, s.attachItems(ctx, orders)
}

// UpdateOrderStatus changes the status only if it still equals from
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) error {
	res, err := s.exec(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return classify(err, "order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("order %d was modified concurrently", orderID)
	}
	return nil
}

func (s *Store) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query, args, err := sqlx.In(
		"SELECT id, order_id, product_id, shop_id, product_name, quantity, unit_price FROM order_items WHERE order_id IN (?) ORDER BY id",
		ids)
	if err != nil {
		return classify(err, "order items")
	}
	query = s.q.Rebind(query)

	var items []models.OrderItem
	if err := s.selectAll(ctx, &items, query, args...); err != nil {
		return classify(err, "order items")
	}

	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}
