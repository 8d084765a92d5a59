package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kosarica/catalog-service/docs"
	"github.com/kosarica/catalog-service/internal/auth"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/middleware"
)

// Deps carries everything the router wires together.
type Deps struct {
	Pool           *pgxpool.Pool
	Catalog        *catalog.Service
	Auth           *auth.Service
	ChatRunner     ChatRunner
	InternalAPIKey string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the full HTTP surface.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if deps.RateLimitRPS > 0 {
		burst := deps.RateLimitBurst
		if burst < 1 {
			burst = int(deps.RateLimitRPS) * 2
		}
		router.Use(middleware.RateLimit(deps.RateLimitRPS, burst))
	}

	authHandler := NewAuthHandler(deps.Auth)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/token", authHandler.Token)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/verify-email/:token", authHandler.VerifyEmail)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	// Service-to-service control plane, guarded by the internal key.
	crawlerHandler := NewCrawlerHandler(deps.Pool)
	importerHandler := NewImporterHandler(deps.Pool)
	internal := router.Group("/v1", middleware.InternalKeyAuth(deps.InternalAPIKey))
	{
		internal.POST("/crawler/status", crawlerHandler.ReportStatus)
		internal.GET("/crawler/successful_runs/:date", crawlerHandler.SuccessfulRuns)
		internal.GET("/crawler/failed_or_started_runs/:date", crawlerHandler.FailedOrStartedRuns)

		internal.POST("/importer/status", importerHandler.ReportStatus)
		internal.GET("/importer/status/:chain/:date", importerHandler.GetStatus)
		internal.GET("/importer/successful_runs/:date", importerHandler.SuccessfulRuns)
		internal.GET("/importer/failed_or_started_runs/:date", importerHandler.FailedOrStartedRuns)
	}

	productsHandler := NewProductsHandler(deps.Catalog)
	storesHandler := NewStoresHandler(deps.Pool, deps.Catalog)
	listsHandler := NewListsHandler(deps.Pool)
	locationsHandler := NewLocationsHandler(deps.Pool, deps.Catalog)
	chatHandler := NewChatHandler(deps.ChatRunner, displayNameResolver(deps.Auth))

	v2 := router.Group("/v2", middleware.JWTAuth(deps.Auth.JWT()))
	{
		v2.GET("/me", authHandler.Me)

		v2.GET("/products/search", productsHandler.Search)
		v2.GET("/products/:id", productsHandler.Get)
		v2.GET("/products/:id/prices-by-location", productsHandler.PricesByLocation)

		v2.GET("/stores", storesHandler.List)
		v2.GET("/stores/nearby", storesHandler.Nearby)

		v2.GET("/lists", listsHandler.List)
		v2.POST("/lists", listsHandler.Create)
		v2.DELETE("/lists/:id", listsHandler.Delete)
		v2.GET("/lists/:id/items", listsHandler.Items)
		v2.POST("/lists/:id/items", listsHandler.AddItem)
		v2.PATCH("/lists/:id/items/:itemID", listsHandler.UpdateItem)
		v2.DELETE("/lists/:id/items/:itemID", listsHandler.DeleteItem)

		v2.GET("/locations", locationsHandler.List)
		v2.POST("/locations", locationsHandler.Create)
		v2.DELETE("/locations/:id", locationsHandler.Delete)

		v2.POST("/chat_v2", chatHandler.Chat)
	}

	return router
}

func displayNameResolver(svc *auth.Service) func(ctx context.Context, userID int64) string {
	return func(ctx context.Context, userID int64) string {
		user, err := svc.UserByID(ctx, userID)
		if err != nil || user.DisplayName == nil {
			return ""
		}
		return *user.DisplayName
	}
}
