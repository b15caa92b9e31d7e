package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"product-catalog/internal/models"
	"product-catalog/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing catalog events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewProductEvent builds an event of eventType describing product
func NewProductEvent(eventType string, product *models.Product) *models.ProductEvent {
	return &models.ProductEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now().UTC(),
		},
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Category:  product.Category,
	}
}

// PublishProductEvent publishes a product lifecycle event keyed by product id
func (ep *EventPublisher) PublishProductEvent(ctx context.Context, event *models.ProductEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onProductEvent func(context.Context, *models.ProductEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

func isProductEvent(t string) bool {
	switch t {
	case models.EventTypeProductCreated, models.EventTypeProductUpdated, models.EventTypeProductDeleted:
		return true
	}
	return false
}

// OnProductEvent registers a handler for product lifecycle events
func (eh *EventHandler) OnProductEvent(handler func(context.Context, *models.ProductEvent) error) {
	eh.onProductEvent = handler
}

// HandleMessage routes messages to appropriate handlers. Messages whose type
// header names another event are skipped without decoding.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if t := eventType(msg); t != "" && !isProductEvent(t) {
		eh.logger.Debug("Skipping event", zap.String("type", t))
		return nil
	}

	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	if !isProductEvent(baseEvent.EventType) {
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
		return nil
	}

	eh.logger.Debug("Handling event", zap.String("type", baseEvent.EventType), zap.String("id", baseEvent.EventID))
	if eh.onProductEvent == nil {
		return nil
	}

	var event models.ProductEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
	}
	return eh.onProductEvent(ctx, &event)
}
