package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-catalog/config"
	"product-catalog/internal/api"
	"product-catalog/internal/broker"
	"product-catalog/internal/imagestore"
	"product-catalog/internal/redisclient"
	"product-catalog/internal/service"
	"product-catalog/internal/store"
	"product-catalog/internal/util"
	"product-catalog/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Bool("seed", false, "insert demo products when the catalog is empty")
	flag.Parse()

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting product catalog")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// The product cache is optional; without Redis every read goes to Postgres.
	var cache service.ProductCache
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		cache = redisClient
		log.Println("Redis connected")
	}

	if *seed {
		seedCatalog(ctx, db, redisClient, logger)
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	productService := service.NewProductService(db, cache, eventPublisher)

	var uploader api.ImageUploader
	objects, err := imagestore.Open(ctx, imagestore.Config{
		Driver:    cfg.Storage.Driver,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Warn("Image storage unavailable, uploads disabled", zap.Error(err))
	} else {
		uploader = imagestore.NewUploader(objects, cfg.Storage.UploadMaxBytes)
		logger.Info("Image storage ready", zap.String("driver", cfg.Storage.Driver))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var evicter worker.CacheEvicter
	if redisClient != nil {
		evicter = redisClient
	}
	catalogConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCatalog, cfg.Kafka.ConsumerGroup)
	catalogWorker := worker.NewCatalogWorker(catalogConsumer, db, evicter)
	go func() {
		if err := catalogWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Catalog worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	handler := api.NewHandler(productService, uploader, db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	catalogWorker.Stop()

	log.Println("Server exited")
}

// seedCatalog inserts the demo products. With Redis available a lock keeps
// two starting instances from seeding at once.
func seedCatalog(ctx context.Context, db *store.Store, redisClient *redisclient.Client, logger *zap.Logger) {
	if redisClient != nil {
		ok, err := redisClient.AcquireLock(ctx, "catalog-seed", time.Minute)
		if err != nil {
			logger.Warn("Failed to acquire seed lock", zap.Error(err))
		}
		if err == nil && !ok {
			logger.Info("Seed already running elsewhere, skipping")
			return
		}
		defer redisClient.ReleaseLock(ctx, "catalog-seed")
	}

	n, err := db.Seed(ctx)
	if err != nil {
		logger.Error("Failed to seed catalog", zap.Error(err))
		return
	}
	logger.Info("Catalog seeded", zap.Int("products", n))
}
