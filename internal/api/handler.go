package api

import (
	"context"
	"net/http"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency checked by the readiness check
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the application services the handlers call
type Services struct {
	Carts   *service.CartService
	Orders  *service.OrderService
	Follows *service.FollowService
	Catalog *service.CatalogService
	Reviews *service.ReviewService
	Users   *service.UserService
}

// Handler contains HTTP handlers
type Handler struct {
	carts   *service.CartService
	orders  *service.OrderService
	follows *service.FollowService
	catalog *service.CatalogService
	reviews *service.ReviewService
	users   *service.UserService
	tokens  *auth.TokenService
	checks  map[string]Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, tokens *auth.TokenService, checks map[string]Pinger) *Handler {
	return &Handler{
		carts:   svc.Carts,
		orders:  svc.Orders,
		follows: svc.Follows,
		catalog: svc.Catalog,
		reviews: svc.Reviews,
		users:   svc.Users,
		tokens:  tokens,
		checks:  checks,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := h.identify(true)
	optional := h.identify(false)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/reviews", h.listReviews)
		v1.POST("/products", authed, h.createProduct)
		v1.PUT("/products/:id", authed, h.updateProduct)
		v1.DELETE("/products/:id", authed, h.deleteProduct)
		v1.POST("/products/:id/reviews", authed, h.upsertReview)
		v1.POST("/reviews/:id/helpful", authed, h.markHelpful)

		v1.GET("/shops", h.listShops)
		v1.POST("/shops", authed, h.createShop)
		v1.GET("/shops/me", authed, h.getMyShop)
		v1.PUT("/shops/me", authed, h.updateMyShop)
		v1.GET("/shops/:id", h.getShop)
		v1.GET("/shops/:id/followers", h.listFollowers)
		v1.GET("/shops/:id/follow-status", optional, h.followStatus)
		v1.POST("/shops/:id/follow", authed, h.followShop)
		v1.DELETE("/shops/:id/follow", authed, h.unfollowShop)

		v1.GET("/cart", authed, h.getCart)
		v1.POST("/cart", authed, h.addToCart)
		v1.PUT("/cart", authed, h.updateCartItem)
		v1.DELETE("/cart", authed, h.removeFromCart)

		v1.GET("/orders", authed, h.listOrders)
		v1.POST("/orders", authed, h.createOrder)
		v1.GET("/orders/:orderId", authed, h.getOrder)
		v1.PUT("/orders/:orderId", authed, h.updateOrder)

		v1.GET("/shop/orders", authed, h.listShopOrders)
		v1.PATCH("/shop/orders/:orderId/status", authed, h.updateShopOrderStatus)

		v1.GET("/me", authed, h.getProfile)
		v1.PUT("/me", authed, h.updateProfile)
		v1.GET("/me/following", authed, h.listFollowing)

		admin := v1.Group("/admin", authed, requireAdmin())
		admin.GET("/users", h.listUsers)
		admin.DELETE("/users/:id", h.deleteUser)
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, apperr.NotFound("route not found"))
	})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, envelope{
			Success:    false,
			StatusCode: http.StatusServiceUnavailable,
			Data:       gin.H{"status": "not ready", "failed": failed},
			Error:      "dependencies unavailable",
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	respond(c, http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
