package http

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/neocube/neocube-backend/internal/http/handlers"
	httpMW "github.com/neocube/neocube-backend/internal/http/middleware"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	TechnologyHandler *httpH.TechnologyHandler
	ProgressHandler   *httpH.ProgressHandler
	SectorHandler     *httpH.SectorHandler
	HealthHandler     *httpH.HealthHandler
}

var registerTagNameOnce sync.Once

// useJSONFieldNames makes validation errors report the json name of a field.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "neocube"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log.With("Middleware", "RequestLogger")))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.Health)
	}

	am := cfg.AuthMiddleware
	requireAuth := am.RequireAuth()
	optionalAuth := am.OptionalAuth()
	requireAdmin := am.RequireAdmin()

	// Auth
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.GET("/me", requireAuth, cfg.AuthHandler.Me)
	}

	// Technologies
	if cfg.TechnologyHandler != nil {
		tech := api.Group("/technologies")
		tech.GET("", optionalAuth, cfg.TechnologyHandler.List)
		tech.GET("/trending", optionalAuth, cfg.TechnologyHandler.Trending)
		tech.GET("/:slug", optionalAuth, cfg.TechnologyHandler.GetBySlug)
		tech.GET("/:slug/stats", requireAuth, requireAdmin, cfg.TechnologyHandler.Stats)
		tech.POST("", requireAuth, requireAdmin, cfg.TechnologyHandler.Create)
		if cfg.ProgressHandler != nil {
			tech.PUT("/:slug/progress", requireAuth, cfg.ProgressHandler.UpdateBySlug)
			tech.POST("/:slug/progress", requireAuth, cfg.ProgressHandler.UpdateBySlug)
		}
	}

	// Progress
	if cfg.ProgressHandler != nil {
		progress := api.Group("/progress", requireAuth)
		progress.GET("/:techId", cfg.ProgressHandler.Get)
		progress.POST("/:techId", cfg.ProgressHandler.Start)
		progress.POST("/:techId/step/:stepId", cfg.ProgressHandler.UpdateStep)
	}

	// Users
	if cfg.UserHandler != nil {
		users := api.Group("/users", requireAuth)
		users.GET("/profile", cfg.UserHandler.GetProfile)
		users.PUT("/profile", cfg.UserHandler.UpdateProfile)
		users.POST("/profile/avatar", cfg.UserHandler.UploadAvatar)
		users.GET("/dashboard", cfg.UserHandler.Dashboard)
		users.GET("/activity", cfg.UserHandler.Activity)
		users.GET("/favourites", cfg.UserHandler.ListFavourites)
		users.POST("/favourites/:techId", cfg.UserHandler.AddFavourite)
		users.DELETE("/favourites/:techId", cfg.UserHandler.RemoveFavourite)
	}

	// Fields
	if cfg.SectorHandler != nil {
		api.GET("/fields", cfg.SectorHandler.List)
		api.GET("/fields/:id", cfg.SectorHandler.Get)
	}

	return r
}
