package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/http/handlers"
	"github.com/klaape/klaape-api/internal/http/middlewares"
	"github.com/klaape/klaape-api/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	jsonBodyLimit = 1 << 20
	// multipart framing around the image itself
	multipartOverhead = 64 << 10
)

type AuthService interface {
	handlers.Accounts
	middlewares.Authenticator
}

// Dependencies are the services the router wires into handlers. Prom and
// Gatherer may be nil (tests).
type Dependencies struct {
	Auth       AuthService
	Profiles   handlers.ProfileService
	Categories handlers.CategoryLister
	Catalog    handlers.CatalogReader
	Ready      map[string]handlers.Pinger

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Dependencies) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		log.Error("register validators", "err", err)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.MediaURLPrefix))
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))

	// health
	h := handlers.NewHealthHandler(cfg.Version, deps.Ready)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/swagger", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	if cfg.MediaDriver == "disk" && cfg.MediaDir != "" {
		r.StaticFS(cfg.MediaURLPrefix, gin.Dir(cfg.MediaDir, false))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Auth, cfg.CookieName)
	limiter := middlewares.NewRateLimiter(20, time.Minute)

	authH := handlers.NewAuthHandler(deps.Auth, cfg, authMW.TokenFrom)
	profilesH := handlers.NewProfilesHandler(deps.Profiles, cfg.MaxUploadBytes)
	catalogH := handlers.NewCatalogHandler(deps.Categories, deps.Catalog)

	api := r.Group("/api")

	// JSON endpoints
	public := api.Group("", middlewares.MaxBodyBytes(jsonBodyLimit), middlewares.RequireJSON())
	{
		public.POST("/signup/", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authH.SignUp)
		public.POST("/login/", limiter.RateLimiterMiddleware(middlewares.KeyByIP), authH.Login)
		public.POST("/logout/", authH.Logout)

		public.GET("/categories/", catalogH.ListCategories)
		public.GET("/videos/", catalogH.ListVideos)
		public.GET("/videos/:id/", catalogH.GetVideo)
		public.GET("/klaapenings/", catalogH.ListKlaapenings)
		public.GET("/live-sessions/", catalogH.ListLiveSessions)
		public.GET("/reviews/", catalogH.ListReviews)
	}

	private := public.Group("", authMW.RequireAuth())
	{
		private.GET("/users/:id/profile/", profilesH.GetUserProfile)
		private.PUT("/users/:id/profile/", profilesH.UpdateUserProfile)
		private.PATCH("/users/:id/profile/", profilesH.UpdateUserProfile)

		private.GET("/profiles/", profilesH.List)
		private.GET("/profiles/:id/", profilesH.Retrieve)
		private.PUT("/profiles/:id/", profilesH.UpdateByID)
		private.PATCH("/profiles/:id/", profilesH.UpdateByID)
		private.DELETE("/profiles/:id/", profilesH.Delete)

		private.GET("/purchases/", catalogH.ListPurchases)
		private.GET("/bookings/", catalogH.ListBookings)

		private.POST("/categories/", authMW.RequireStaff(), catalogH.CreateCategory)
	}

	// multipart upload sits outside the JSON-only group
	upload := api.Group("", middlewares.MaxBodyBytes(cfg.MaxUploadBytes+multipartOverhead), authMW.RequireAuth())
	upload.POST("/users/:id/profile/image/", profilesH.UploadImage)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	r.HandleMethodNotAllowed = true

	return r
}
