package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"product-catalog/internal/imagestore"
	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ProductService is the catalog logic behind the product routes
type ProductService interface {
	List(ctx context.Context, q query.ProductQuery) ([]models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id int64) (*models.DeletedProduct, error)
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
}

// ImageUploader stores uploaded product images
type ImageUploader interface {
	Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (*imagestore.Image, error)
	MaxBytes() int64
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	products ProductService
	uploader ImageUploader
	db       Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. uploader and db may be nil.
func NewHandler(products ProductService, uploader ImageUploader, db Pinger) *Handler {
	return &Handler{
		products: products,
		uploader: uploader,
		db:       db,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.CustomRecovery(h.recoverJSON))
	router.Use(prometheusMiddleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/", h.index)
	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		products := api.Group("/products")
		products.GET("", h.listProducts)
		products.GET("/categories", h.listCategories)
		products.GET("/:id", h.getProduct)
		products.POST("", h.createProduct)
		products.PUT("/:id", h.updateProduct)
		products.DELETE("/:id", h.deleteProduct)

		api.POST("/upload/upload", h.uploadImage)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func (h *Handler) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product API is running",
		"endpoints": gin.H{
			"products":      "/api/products",
			"categories":    "/api/products/categories",
			"singleProduct": "/api/products/:id",
			"createProduct": "POST /api/products",
			"upload":        "POST /api/upload/upload",
		},
	})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
				"time":   time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) recoverJSON(c *gin.Context, recovered interface{}) {
	h.logger.Error("Panic while handling request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Any("panic", recovered))

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": fmt.Sprint(recovered),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
