package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product-catalog/internal/broker"
	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/redisclient"
	"product-catalog/internal/store"
	"product-catalog/internal/util"

	"go.uber.org/zap"
)

// ProductStore is the persistence the service needs
type ProductStore interface {
	ListProducts(ctx context.Context, pred query.Predicate, order query.Ordering) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product, replaceVariants bool) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
}

// ProductCache is a read-through cache for single products
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product) error
	EvictProduct(ctx context.Context, id int64) error
}

// EventPublisher publishes catalog events
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event *models.ProductEvent) error
}

// ProductService handles product business logic
type ProductService struct {
	store     ProductStore
	cache     ProductCache
	publisher EventPublisher
	logger    *zap.Logger
}

// NewProductService creates a new product service. cache and publisher are
// optional.
func NewProductService(store ProductStore, cache ProductCache, publisher EventPublisher) *ProductService {
	return &ProductService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// List returns the products matching q
func (s *ProductService) List(ctx context.Context, q query.ProductQuery) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.List")
	defer span.End()

	pred, order := query.Build(q)
	products, err := s.store.ListProducts(ctx, pred, order)
	if err != nil {
		return nil, util.RecordError(span, err)
	}
	return products, nil
}

// ListCategories returns the distinct categories with product counts
func (s *ProductService) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListCategories")
	defer span.End()

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, util.RecordError(span, err)
	}
	return categories, nil
}

// Get returns one product with its variants
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Get")
	defer span.End()

	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			util.ProductCacheRequests.WithLabelValues("hit").Inc()
			return product, nil
		}
		if !errors.Is(err, redisclient.ErrMiss) {
			s.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		}
		util.ProductCacheRequests.WithLabelValues("miss").Inc()
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, util.RecordError(span, err)
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return product, nil
}

// Create validates and stores a new product with its variants
func (s *ProductService) Create(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	if err := validateCreate(in); err != nil {
		return nil, s.rejected(err)
	}

	exists, err := s.store.SKUExists(ctx, *in.SKU, 0)
	if err != nil {
		return nil, util.RecordError(span, fmt.Errorf("failed to check sku: %w", err))
	}
	if exists {
		return nil, s.rejected(errDuplicateSKU)
	}

	product := &models.Product{Variants: []models.Variant{}}
	apply(product, in)

	if err := s.store.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicateSKU) {
			return nil, s.rejected(errDuplicateSKU)
		}
		return nil, util.RecordError(span, fmt.Errorf("failed to create product: %w", err))
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("sku", product.SKU))

	s.publish(ctx, models.EventTypeProductCreated, product)
	return product, nil
}

// Update applies a partial update. Supplied variants replace the existing set.
func (s *ProductService) Update(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Update")
	defer span.End()

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, util.RecordError(span, err)
	}

	if err := validateUpdate(in); err != nil {
		return nil, s.rejected(err)
	}

	if in.SKU != nil && *in.SKU != product.SKU {
		exists, err := s.store.SKUExists(ctx, *in.SKU, id)
		if err != nil {
			return nil, util.RecordError(span, fmt.Errorf("failed to check sku: %w", err))
		}
		if exists {
			return nil, s.rejected(errDuplicateSKU)
		}
	}

	replaceVariants := apply(product, in)

	if err := s.store.UpdateProduct(ctx, product, replaceVariants); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, store.ErrDuplicateSKU):
			return nil, s.rejected(errDuplicateSKU)
		}
		return nil, util.RecordError(span, fmt.Errorf("failed to update product: %w", err))
	}

	util.ProductsUpdatedTotal.Inc()
	s.logger.Info("Product updated",
		zap.Int64("product_id", id),
		zap.Bool("variants_replaced", replaceVariants))

	s.evict(ctx, id)
	s.publish(ctx, models.EventTypeProductUpdated, product)
	return product, nil
}

// Delete removes a product and its variants
func (s *ProductService) Delete(ctx context.Context, id int64) (*models.DeletedProduct, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Delete")
	defer span.End()

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, util.RecordError(span, err)
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, util.RecordError(span, fmt.Errorf("failed to delete product: %w", err))
	}

	util.ProductsDeletedTotal.Inc()
	s.logger.Info("Product deleted", zap.Int64("product_id", id), zap.String("sku", product.SKU))

	s.evict(ctx, id)
	s.publish(ctx, models.EventTypeProductDeleted, product)

	return &models.DeletedProduct{
		ID:        product.ID,
		Name:      product.Name,
		DeletedAt: time.Now().UTC(),
	}, nil
}

func (s *ProductService) load(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return product, nil
}

func (s *ProductService) rejected(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		util.ProductValidationFailures.WithLabelValues(verr.Field).Inc()
		s.logger.Debug("Product rejected", zap.String("field", verr.Field), zap.String("reason", verr.Message))
	}
	return err
}

func (s *ProductService) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.EvictProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to evict product from cache", zap.Int64("product_id", id), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, eventType string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProductEvent(ctx, broker.NewProductEvent(eventType, product)); err != nil {
		util.CatalogEventsPublishFailed.Inc()
		s.logger.Error("Failed to publish catalog event",
			zap.String("event_type", eventType),
			zap.Int64("product_id", product.ID),
			zap.Error(err))
	}
}
