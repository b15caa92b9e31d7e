package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "Total number of products created",
	})

	ProductsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "Total number of products updated",
	})

	ProductsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "Total number of products deleted",
	})

	ProductValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_validation_failures_total",
		Help: "Total number of rejected product payloads",
	}, []string{"field"})

	ProductCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "product_cache_requests_total",
		Help: "Product read cache lookups",
	}, []string{"result"})

	CatalogEventsPublishFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_events_publish_failed_total",
		Help: "Total number of catalog events that could not be published",
	})

	CatalogEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_events_processed_total",
		Help: "Total number of catalog events consumed by the audit worker",
	}, []string{"type"})

	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_uploads_total",
		Help: "Total number of image uploads",
	}, []string{"status"})

	ImageUploadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "image_upload_latency_seconds",
		Help:    "Latency of object storage uploads",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
