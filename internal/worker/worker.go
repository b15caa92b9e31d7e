package worker

import (
	"context"
	"fmt"

	"product-catalog/internal/broker"
	"product-catalog/internal/models"
	"product-catalog/internal/util"

	"go.uber.org/zap"
)

// EventLog is the audit trail of consumed catalog events
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string, productID int64) error
}

// CacheEvicter drops stale product entries
type CacheEvicter interface {
	EvictProduct(ctx context.Context, id int64) error
}

// CatalogWorker records catalog events and evicts the product cache entry
// they touch. Instances share one consumer group, so each event is handled
// once; the cache is shared Redis, so one eviction suffices.
type CatalogWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	events       EventLog
	cache        CacheEvicter
	logger       *zap.Logger
}

// NewCatalogWorker creates a new catalog worker. cache may be nil.
func NewCatalogWorker(consumer *broker.Consumer, events EventLog, cache CacheEvicter) *CatalogWorker {
	w := &CatalogWorker{
		consumer: consumer,
		events:   events,
		cache:    cache,
		logger:   util.GetLogger(),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnProductEvent(w.HandleProductEvent)
	return w
}

// Start starts the worker
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog worker")
	return w.consumer.Close()
}

// HandleProductEvent applies one event. Redelivered events are skipped.
func (w *CatalogWorker) HandleProductEvent(ctx context.Context, event *models.ProductEvent) error {
	processed, err := w.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", event.EventID, err)
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if w.cache != nil {
		if err := w.cache.EvictProduct(ctx, event.ProductID); err != nil {
			w.logger.Warn("Failed to evict product from cache",
				zap.Int64("product_id", event.ProductID), zap.Error(err))
		}
	}

	if err := w.events.MarkEventProcessed(ctx, event.EventID, event.EventType, event.ProductID); err != nil {
		return fmt.Errorf("failed to record event %s: %w", event.EventID, err)
	}

	util.CatalogEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	w.logger.Info("Catalog event recorded",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Int64("product_id", event.ProductID),
		zap.String("sku", event.SKU))
	return nil
}
