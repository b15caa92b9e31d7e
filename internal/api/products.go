package api

import (
	"errors"
	"net/http"

	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), query.Parse(c.Request.URL.Query()))
	if err != nil {
		h.fail(c, "Failed to fetch products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"total":   len(products),
	})
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.products.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch categories", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to fetch product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

func (h *Handler) createProduct(c *gin.Context) {
	var in models.ProductInput
	if !h.bind(c, &in) {
		return
	}

	product, err := h.products.Create(c.Request.Context(), &in)
	if err != nil {
		h.fail(c, "Failed to create product", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully",
		"data":    product,
	})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	var in models.ProductInput
	if !h.bind(c, &in) {
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, &in)
	if err != nil {
		h.fail(c, "Failed to update product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"data":    product,
	})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	deleted, err := h.products.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to delete product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted successfully",
		"data":    deleted,
	})
}

func (h *Handler) productID(c *gin.Context) (int64, bool) {
	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return 0, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, in *models.ProductInput) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// fail maps service errors onto status codes. Unexpected errors are reported
// as 500 with the operation's message.
func (h *Handler) fail(c *gin.Context, message string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": verr.Message,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
	default:
		h.logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	}
}
