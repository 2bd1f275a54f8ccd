package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// OrderService handles checkout and the order lifecycle
type OrderService struct {
	repo    repository.Repository
	cache   ProductCache
	locker  Locker
	events  EventPublisher
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewOrderService creates a new order service. Nil collaborators are
// replaced with no-op implementations.
func NewOrderService(
	repo repository.Repository,
	cache ProductCache,
	locker Locker,
	events EventPublisher,
	lockTTL time.Duration,
) *OrderService {
	if cache == nil {
		cache = NoopCache()
	}
	if locker == nil {
		locker = NoopLocker()
	}
	if events == nil {
		events = NoopPublisher()
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &OrderService{
		repo:    repo,
		cache:   cache,
		locker:  locker,
		events:  events,
		lockTTL: lockTTL,
		logger:  util.GetLogger(),
	}
}

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	ShippingInfo   models.ShippingInfo `json:"shippingInfo"`
	PaymentInfo    models.PaymentInfo  `json:"paymentInfo"`
	IdempotencyKey string              `json:"idempotencyKey,omitempty" validate:"max=100"`
}

// CreateOrder converts the user's cart into one PENDING order. Stock checks,
// the order insert, stock decrements and clearing the cart happen in a single
// transaction; any failure leaves everything unchanged.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := models.Validate(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if existing, err := s.findByIdempotencyKey(ctx, userID, req.IdempotencyKey); err != nil || existing != nil {
		return existing, err
	}

	lockKey := fmt.Sprintf("checkout:%d", userID)
	token, locked, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
	switch {
	case err != nil:
		s.logger.Warn("Checkout lock unavailable, relying on transaction",
			zap.Int64("user_id", userID), zap.Error(err))
	case !locked:
		util.OrdersFailedTotal.WithLabelValues("concurrent_checkout").Inc()
		return nil, apperr.Conflict("another checkout is already in progress")
	default:
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
				s.logger.Warn("Failed to release checkout lock", zap.Int64("user_id", userID), zap.Error(err))
			}
		}()
	}

	var order *models.Order
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		order, err = s.checkout(ctx, tx, userID, req)
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) && req.IdempotencyKey != "" {
			// A concurrent request with the same key may have won the insert.
			if existing, findErr := s.findByIdempotencyKey(ctx, userID, req.IdempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		if apperr.KindOf(err) == apperr.KindInternal {
			s.logger.Error("Checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int("items", len(order.Items)))

	productIDs := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	if err := s.cache.InvalidateProducts(ctx, productIDs...); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}

	s.publishOrderCreated(ctx, order)
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, tx repository.Repository, userID int64, req *CreateOrderRequest) (*models.Order, error) {
	cartID, err := tx.GetOrCreateCartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines, err := tx.GetCartLines(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.BadRequest("cart is empty")
	}

	// Lock products in a fixed order so concurrent checkouts cannot deadlock.
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	order := &models.Order{
		UserID:         userID,
		Status:         models.OrderStatusPending,
		ShippingInfo:   req.ShippingInfo,
		PaymentInfo:    req.PaymentInfo,
		IdempotencyKey: req.IdempotencyKey,
		Items:          make([]models.OrderItem, 0, len(lines)),
	}

	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > models.MaxCartQuantity {
			return nil, apperr.Conflict("cart line for product %d has an invalid quantity %d",
				line.ProductID, line.Quantity)
		}
		product, err := tx.GetProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, apperr.Conflict("insufficient stock for %q: requested %d, available %d",
				product.Name, line.Quantity, product.Stock)
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:   product.ID,
			ShopID:      product.ShopID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
		order.TotalAmount += product.Price * int64(line.Quantity)
	}

	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.ConsumeCartLines(ctx, cartID, lines); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) findByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.repo.GetOrderByIdempotencyKey(ctx, userID, key)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", existing.ID))
	return existing, nil
}

func failureReason(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		return "empty_cart"
	case apperr.KindConflict:
		return "insufficient_stock"
	case apperr.KindNotFound:
		return "product_missing"
	}
	return "internal"
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	items := make([]models.OrderItemData, 0, len(order.Items))
	shops := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			ShopID:    item.ShopID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		if !seen[item.ShopID] {
			seen[item.ShopID] = true
			shops = append(shops, item.ShopID)
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:   models.NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		ShopIDs:     shops,
		Items:       items,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}

// GetUserOrders lists the user's own orders, newest first
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetUserOrders")
	defer span.End()

	return s.repo.GetOrdersByUserID(ctx, userID)
}

// GetOrderByID returns an order owned by userID. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderByID")
	defer span.End()

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	return order, nil
}

// CancelOrder lets the purchaser cancel a PENDING order and returns its stock
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	var (
		order *models.Order
		from  models.OrderStatus
	)
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		order, err = tx.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return apperr.NotFound("order not found")
		}
		from = order.Status
		if from == models.OrderStatusCancelled {
			return nil
		}
		if from != models.OrderStatusPending {
			return apperr.Conflict("order in status %s can no longer be cancelled", from)
		}
		return s.applyStatus(ctx, tx, order, models.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	if from != order.Status {
		s.afterStatusChange(ctx, order, from, userID)
	}
	return order, nil
}

// GetShopOrders lists orders containing items of the caller's shop. Each
// order only shows that shop's items. A shop without orders is NotFound.
func (s *OrderService) GetShopOrders(ctx context.Context, ownerID int64) ([]*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetShopOrders")
	defer span.End()

	shop, err := s.ownedShop(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.GetOrdersByShopID(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.NotFound("no orders found for your shop")
	}

	projected := make([]*models.Order, 0, len(orders))
	for i := range orders {
		projected = append(projected, orders[i].ForShop(shop.ID))
	}
	return projected, nil
}

// UpdateOrderStatus moves an order through the state machine on behalf of a
// shop owner whose products are part of it. Moving to CANCELLED restores stock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, ownerID, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperr.BadRequest("invalid order status %q", status)
	}

	shop, err := s.ownedShop(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var (
		order *models.Order
		from  models.OrderStatus
	)
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		order, err = tx.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.HasItemsFrom(shop.ID) {
			return apperr.NotFound("order not found")
		}
		from = order.Status
		if from == next {
			return nil
		}
		if !from.CanTransitionTo(next) {
			return apperr.Conflict("cannot change order status from %s to %s", from, next)
		}
		return s.applyStatus(ctx, tx, order, next)
	})
	if err != nil {
		return nil, err
	}

	if from != order.Status {
		s.afterStatusChange(ctx, order, from, ownerID)
	}
	return order.ForShop(shop.ID), nil
}

func (s *OrderService) applyStatus(ctx context.Context, tx repository.Repository, order *models.Order, next models.OrderStatus) error {
	if next == models.OrderStatusCancelled {
		items := append([]models.OrderItem(nil), order.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, item := range items {
			if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}
	if err := tx.UpdateOrderStatus(ctx, order.ID, order.Status, next); err != nil {
		return err
	}
	order.Status = next
	return nil
}

func (s *OrderService) afterStatusChange(ctx context.Context, order *models.Order, from models.OrderStatus, changedBy int64) {
	util.OrderStatusChangesTotal.WithLabelValues(string(order.Status)).Inc()
	if order.Status == models.OrderStatusCancelled {
		util.OrdersCancelledTotal.Inc()
		productIDs := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		if err := s.cache.InvalidateProducts(ctx, productIDs...); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
		}
	}

	s.logger.Info("Order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
		zap.Int64("changed_by", changedBy))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   order.ID,
		From:      from,
		To:        order.Status,
		ChangedBy: changedBy,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
}

func (s *OrderService) ownedShop(ctx context.Context, ownerID int64) (*models.Shop, error) {
	shop, err := s.repo.GetShopByOwner(ctx, ownerID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("you do not own a shop")
	}
	return shop, err
}
