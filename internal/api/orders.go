package api

import (
	"net/http"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

type updateCartItemRequest struct {
	CartItemID int64 `json:"cartItemId" binding:"required"`
	Quantity   *int  `json:"quantity" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.carts.GetOrCreateCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddToCart(c.Request.Context(), currentUserID(c), req.ProductID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.carts.UpdateCartItem(c.Request.Context(), req.CartItemID, *req.Quantity, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

// removeFromCart deletes ?cartItemId= or, without it, clears the cart
func (h *Handler) removeFromCart(c *gin.Context) {
	userID := currentUserID(c)

	if c.Query("cartItemId") == "" {
		cart, err := h.carts.ClearCart(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, cart)
		return
	}

	itemID := int64(queryInt(c, "cartItemId"))
	if itemID <= 0 {
		respondError(c, apperr.BadRequest("invalid cartItemId"))
		return
	}
	cart, err := h.carts.RemoveFromCart(c.Request.Context(), itemID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.GetUserOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

// createOrder checks out the cart. The Idempotency-Key header is used when
// the body carries no key.
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// updateOrder lets the purchaser cancel their order
func (h *Handler) updateOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, valid := models.ParseOrderStatus(req.Status)
	if !valid {
		respondError(c, apperr.BadRequest("invalid order status %q", req.Status))
		return
	}
	if status != models.OrderStatusCancelled {
		respondError(c, apperr.Forbidden("customers can only cancel orders"))
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), orderID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *Handler) listShopOrders(c *gin.Context) {
	orders, err := h.orders.GetShopOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

func (h *Handler) updateShopOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), currentUserID(c), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}
