package api

import (
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	userKey         = "user"
	requestIDHeader = "X-Request-ID"
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// requestLogger attaches a request-scoped zap logger and logs each request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := util.GetLogger().With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(util.WithLogger(c.Request.Context(), logger))

		c.Next()

		logger.Info("http_access",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// identify resolves the bearer token into a local user. Without a token it
// continues anonymously unless required is set.
func (h *Handler) identify(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				respondError(c, apperr.Unauthorized("authentication required"))
				return
			}
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			respondError(c, apperr.Unauthorized("invalid token format, must be Bearer token"))
			return
		}

		claims, err := h.tokens.ParseToken(token)
		if err != nil {
			respondError(c, apperr.Unauthorized("invalid or expired token"))
			return
		}
		identity, err := claims.User()
		if err != nil {
			respondError(c, apperr.Unauthorized("invalid or expired token"))
			return
		}

		user, err := h.users.EnsureUser(c.Request.Context(), identity)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// requireAdmin must run after identify(true)
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := currentUser(c); user == nil || user.Role != models.RoleAdmin {
			respondError(c, apperr.Forbidden("admin role required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// currentUserID is 0 for anonymous callers
func currentUserID(c *gin.Context) int64 {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return 0
}
