package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"hackov8/cert-service/config"
	"hackov8/cert-service/handlers"
	"hackov8/cert-service/internal/engine"
	"hackov8/cert-service/internal/registry"
	"hackov8/cert-service/internal/renderclient"
	"hackov8/cert-service/internal/templatestore"
	"hackov8/cert-service/middleware"
)

func main() {
	logger := config.InitLogger()
	cfg := config.Load()

	var templates templatestore.Store
	var certRegistry registry.Registry

	switch cfg.StorageBackend {
	case config.BackendSupabase:
		client, err := config.NewSupabaseClient(cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize Supabase: %v", err)
		}
		templates = templatestore.NewSupabaseStore(client, cfg.SupabaseURL, cfg.SupabaseKey, cfg.TemplateBucket, cfg.MaxImageBytes, logger)
		certRegistry = registry.NewSupabaseRegistry(client, logger)
		logger.Info("Using Supabase storage backend")
	case config.BackendMemory:
		templates = templatestore.NewMemoryStore(cfg.MaxImageBytes)
		certRegistry = registry.NewMemoryRegistry()
		logger.Info("Using in-memory storage backend")
	default:
		logger.Fatalf("Unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	renderer := renderclient.NewHTTPRenderer(cfg.RendererURL, logger)
	defer renderer.Close()

	eng := engine.New(renderer, certRegistry, logger, cfg.VerifyBaseURL)
	handler := handlers.NewApplicationHandler(logger, templates, certRegistry, eng)

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxImageBytes) + 1<<20, // image ceiling plus form overhead
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(logger))

	handlers.RegisterRoutes(app, handler)

	logger.Infof("Starting certificate service on port %s...", cfg.Port)
	logger.Fatal(app.Listen(":" + cfg.Port))
}
