package api

import (
	"net/http"

	"marketplace-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) followShop(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.follows.Follow(c.Request.Context(), currentUserID(c), shopID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"shopId": shopID, "following": true})
}

func (h *Handler) unfollowShop(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), currentUserID(c), shopID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"shopId": shopID, "following": false})
}

// followStatus answers false for anonymous callers
func (h *Handler) followStatus(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	following, err := h.follows.IsFollowing(c.Request.Context(), currentUserID(c), shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"shopId": shopID, "following": following})
}

func (h *Handler) listFollowers(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	followers, err := h.follows.Followers(c.Request.Context(), shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, followers)
}

func (h *Handler) listFollowing(c *gin.Context) {
	shops, err := h.follows.FollowedShops(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, shops)
}

func (h *Handler) listReviews(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListProductReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, reviews)
}

func (h *Handler) upsertReview(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.ReviewInput
	if !bindJSON(c, &input) {
		return
	}

	review, err := h.reviews.UpsertReview(c.Request.Context(), currentUserID(c), productID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, review)
}

func (h *Handler) markHelpful(c *gin.Context) {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviews.MarkHelpful(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, review)
}
