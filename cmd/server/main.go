// @title           Order Board API
// @version         1.0.0
// @description     Tracks group orders through New, Pending, OTW and Completed, with an optional photo per order.

// @host      localhost:8080
// @BasePath  /

package main

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"order-board/docs"
	"order-board/internal/board"
	"order-board/internal/config"
	"order-board/internal/database"
	"order-board/internal/filestore"
	"order-board/internal/handlers"
	"order-board/internal/middleware"
	"order-board/internal/port"
	"order-board/internal/services"
	"order-board/internal/supabase"
	"order-board/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with the public base URL
	if baseURL, err := url.Parse(cfg.PublicBaseURL); err == nil && baseURL.Host != "" {
		docs.SwaggerInfo.Host = baseURL.Host
		if baseURL.Scheme == "https" {
			docs.SwaggerInfo.Schemes = []string{"https", "http"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http", "https"}
		}
	}

	storage, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.StorageBackend, err)
	}
	log.Printf("Using %s storage backend", cfg.StorageBackend)

	router, err := setupRouter(cfg, storage)
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStorage picks the backend named by STORAGE_BACKEND. In supabase mode
// with DATABASE_URL set, the schema migrations run first.
func openStorage(cfg *config.Config) (port.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		return filestore.Open(filestore.Options{
			DataFile: cfg.DataFile,
			ImageDir: cfg.ImageDir,
			BaseURL:  cfg.PublicBaseURL + "/images",
		})

	case config.BackendSupabase:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: DATABASE_URL not set. Migrations will be skipped.")
		} else {
			runMigrations(cfg.DatabaseURL)
		}

		client, err := supabase.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return supabase.NewStore(client)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func runMigrations(dbURL string) {
	migrator, err := database.NewMigrator(dbURL)
	if err != nil {
		log.Printf("Warning: Failed to initialize migrator: %v", err)
		return
	}
	defer migrator.Close()

	if err := migrator.Run(); err != nil {
		log.Printf("Warning: Migration failed: %v", err)
		return
	}

	applied, err := migrator.Applied()
	if err != nil {
		log.Printf("Warning: Failed to list applied migrations: %v", err)
		return
	}
	log.Printf("Migrations completed successfully: %s", strings.Join(applied, ", "))
}

func setupRouter(cfg *config.Config, storage port.Storage) (*gin.Engine, error) {
	orderService := services.NewOrderService(storage)
	boards := board.NewRegistry(orderService, cfg.SessionTTL())

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	ordersHandler := handlers.NewOrdersHandler(orderService, cfg.MaxUploadBytes())
	pagesHandler := handlers.NewPagesHandler(boards, cfg.MaxUploadBytes())

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.BodyLimit(cfg.MaxUploadBytes()))
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	router.SetHTMLTemplate(tmpl)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", handlers.NewHealthHandler(cfg.StorageBackend))

	// Images saved by the file backend
	if cfg.StorageBackend == config.BackendFile {
		router.Static("/images", cfg.ImageDir)
	}

	ordersHandler.RegisterRoutes(router.Group("/api"))
	pagesHandler.RegisterRoutes(router)

	return router, nil
}
