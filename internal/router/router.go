// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layerhub/marketplace-backend/internal/config"
	"github.com/layerhub/marketplace-backend/internal/handlers"
	"github.com/layerhub/marketplace-backend/internal/middleware"
	"github.com/layerhub/marketplace-backend/internal/repository"
	"github.com/layerhub/marketplace-backend/internal/services"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

const version = "1.0.0"

// Initialize builds the engine. Background jobs it starts run until ctx is done.
func Initialize(ctx context.Context, cfg *config.Config, products repository.ProductRepository, storage *services.StorageService) *gin.Engine {
	// Initialize services
	assetService := services.NewAssetService(storage, services.AssetPolicy{
		MaxImages:      cfg.Upload.MaxImages,
		ModelWarnBytes: cfg.Upload.ModelWarnBytes,
		ModelMaxBytes:  cfg.Upload.ModelMaxBytes,
	})
	slugService := services.NewSlugService(products, cfg.Slug.MaxAttempts)
	productService := services.NewProductService(products, assetService, slugService)
	identityService := services.NewIdentityService(cfg.Identity)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService)
	userHandler := handlers.NewUserHandler(identityService)
	catalogHandler := handlers.NewCatalogHandler()

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	uploadLimiter := middleware.NewWindowLimiter(cfg.Upload.RateLimitRequests, cfg.Upload.RateLimitWindow)
	go uploadLimiter.Cleanup(time.Minute, 3*cfg.Upload.RateLimitWindow, ctx.Done())

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = 64 << 20

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Product routes
		product := v1.Group("/product")
		{
			product.GET("", middleware.OptionalAuth(), productHandler.GetProducts)

			protected := product.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", uploadLimiter.Middleware(), productHandler.CreateProduct)
				protected.PUT("", uploadLimiter.Middleware(), productHandler.UpdateProduct)
				protected.DELETE("", productHandler.DeleteProduct)
				protected.POST("/:id/like", productHandler.LikeProduct)
			}
		}

		v1.GET("/products/:slug", productHandler.GetProductBySlug)

		// Editor support
		v1.POST("/shipping/singpost/quote", catalogHandler.QuoteSingpost)
		v1.GET("/categories", catalogHandler.GetCategories)

		// User routes
		v1.GET("/users/:userId", userHandler.GetPublicProfile)
		v1.POST("/onboarding", middleware.AuthRequired(), userHandler.CompleteOnboarding)
	}

	// Local uploads are served by the API itself
	if storage.IsLocal() {
		r.Static("/uploads", storage.LocalDir())
	}

	return r
}
