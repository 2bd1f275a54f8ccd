package api

import (
	"net/http"

	"marketplace-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		ShopID:   int64(queryInt(c, "shopId")),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var input models.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), currentUserID(c), productID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), currentUserID(c), productID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": productID})
}

func (h *Handler) listShops(c *gin.Context) {
	shops, err := h.catalog.ListShops(c.Request.Context(), queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, shops)
}

func (h *Handler) getShop(c *gin.Context) {
	shopID, ok := pathID(c, "id")
	if !ok {
		return
	}

	shop, err := h.catalog.GetShop(c.Request.Context(), shopID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, shop)
}

func (h *Handler) createShop(c *gin.Context) {
	var input models.ShopInput
	if !bindJSON(c, &input) {
		return
	}

	shop, err := h.catalog.CreateShop(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, shop)
}

func (h *Handler) getMyShop(c *gin.Context) {
	shop, err := h.catalog.GetMyShop(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, shop)
}

func (h *Handler) updateMyShop(c *gin.Context) {
	var input models.ShopInput
	if !bindJSON(c, &input) {
		return
	}

	shop, err := h.catalog.UpdateMyShop(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, shop)
}
