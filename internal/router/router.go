// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/handlers"
	"github.com/javajoker/certportal-backend/internal/metrics"
	"github.com/javajoker/certportal-backend/internal/middleware"
	"github.com/javajoker/certportal-backend/internal/services"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

const Version = "1.0.0"

// Dependencies are the long-lived collaborators built by main.
type Dependencies struct {
	Store store.Store
	// Redis is optional; without it token revocations stay in process.
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Initialize builds the services and returns the HTTP engine. Background
// housekeeping started here stops when ctx is cancelled.
func Initialize(ctx context.Context, cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	// Initialize services
	var revoked services.RevocationList
	if deps.Redis != nil {
		revoked = services.NewRedisRevocationList(deps.Redis)
	} else {
		revoked = services.NewMemoryRevocationList()
	}

	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())

	notificationService, err := services.NewNotificationService(cfg.Email, cfg.Frontend.BaseURL)
	if err != nil {
		return nil, err
	}
	storageService, err := services.NewStorageService(cfg.AWS, cfg.Upload, deps.Metrics)
	if err != nil {
		return nil, err
	}

	authService := services.NewAuthService(deps.Store, tokens, revoked)
	certificateService := services.NewCertificateService(deps.Store, notificationService, deps.Metrics)
	statsService := services.NewStatsService(deps.Store, deps.Metrics)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	certificateHandler := handlers.NewCertificateHandler(certificateService, statsService, storageService)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Redis, Version)

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window)
	go generalLimiter.Run(ctx)
	go authLimiter.Run(ctx)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())

	r.GET("/health", healthHandler.Check)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authRequired := middleware.AuthRequired(tokens, revoked)

	api := r.Group("/api")
	api.Use(generalLimiter.Middleware())
	api.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	api.Use(middleware.AuditLogMiddleware(deps.Store))
	{
		api.GET("/catalog", handlers.GetCatalog)

		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authLimiter.Middleware(), authHandler.Register)
			auth.POST("/login", authLimiter.Middleware(), authHandler.Login)
			auth.POST("/refresh", authLimiter.Middleware(), authHandler.RefreshToken)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.GetProfile)
		}

		// Certificate routes
		certificates := api.Group("/certificates")
		certificates.Use(authRequired)
		{
			certificates.POST("", certificateHandler.Submit)
			certificates.GET("", certificateHandler.List)
			certificates.POST("/documents", certificateHandler.UploadDocuments)
			certificates.GET("/stats/dashboard", middleware.AdminRequired(), certificateHandler.DashboardStats)
			certificates.GET("/:id", certificateHandler.Get)
			certificates.PUT("/:id", middleware.AdminRequired(), certificateHandler.Decide)
		}
	}

	// Locally stored documents
	if !cfg.AWS.S3Enabled() {
		r.Static("/uploads", cfg.Upload.Dir)
	}

	serveFrontend(r, cfg.Frontend.DistPath)
	return r, nil
}

// serveFrontend serves the built SPA and falls back to index.html for client
// side routes. API paths keep their JSON 404.
func serveFrontend(r *gin.Engine, distPath string) {
	index := filepath.Join(distPath, "index.html")
	if distPath == "" {
		r.NoRoute(apiNotFound)
		return
	}
	if _, err := os.Stat(index); err != nil {
		logrus.WithField("path", distPath).Warn("Frontend build not found, SPA serving disabled")
		r.NoRoute(apiNotFound)
		return
	}

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			apiNotFound(c)
			return
		}

		file := filepath.Join(distPath, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	})
}

func apiNotFound(c *gin.Context) {
	utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
}
