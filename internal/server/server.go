package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/harpiastore/catalog-service/internal/config"
	"github.com/harpiastore/catalog-service/internal/domain"
	"github.com/harpiastore/catalog-service/internal/handler"
	"github.com/harpiastore/catalog-service/internal/middleware"
	"github.com/harpiastore/catalog-service/internal/repository"
	"github.com/harpiastore/catalog-service/internal/service"
	"github.com/harpiastore/catalog-service/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const idempotencyTTL = 10 * time.Minute

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client

	// BlobStore overrides the config-selected blob store when set (tests).
	BlobStore domain.BlobStore
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories
	productRepo := repository.NewMongoProductRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	blobStore := deps.BlobStore
	if blobStore == nil {
		var err error
		blobStore, err = newBlobStore(deps)
		if err != nil {
			log.Fatalf("Failed to initialize blob store: %v", err)
		}
	}

	// Initialize services
	uploader := service.NewUploader(blobStore, deps.Config.Upload.Attempts, deps.Config.Upload.AttemptTimeout)
	batchUploader := service.NewBatchUploader(uploader)
	productService := service.NewProductService(productRepo, blobStore, cacheRepo, batchUploader)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, deps.Config.Server.MaxUploadSizeMB)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Harpia Catalog API",
		BodyLimit:    int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "harpia-catalog",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	products := v1.Group("/products")
	products.Use(middleware.Idempotency(deps.RedisClient, idempotencyTTL))
	products.Get("/", productHandler.ListProducts)
	products.Post("/", productHandler.CreateProduct)
	products.Get("/:id", productHandler.GetProduct)
	products.Put("/:id", productHandler.UpdateProduct)
	products.Delete("/:id", productHandler.DeleteProduct)

	v1.Get("/uploads/:name", productHandler.GetImage)

	return app
}

func newBlobStore(deps AppDependencies) (domain.BlobStore, error) {
	if deps.Config.Storage.Backend == config.BackendS3 {
		return repository.NewS3BlobStore(context.Background(), deps.Config.Storage.S3)
	}
	return repository.NewGridFSBlobStore(deps.MongoDB, deps.Config.Storage.GridFSBucket)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
