package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/neocube/neocube-backend/internal/http"
	httpH "github.com/neocube/neocube-backend/internal/http/handlers"
	httpMW "github.com/neocube/neocube-backend/internal/http/middleware"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, clients Clients, s Services) *gin.Engine {
	log.Info("Wiring handlers and router...")
	checks := map[string]httpH.Pinger{"mongo": clients.Mongo}
	if clients.Redis != nil {
		checks["redis"] = clients.Redis
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:               log,
		ServiceName:       cfg.Otel.ServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, s.Auth),
		AuthHandler:       httpH.NewAuthHandler(log, s.Auth),
		UserHandler:       httpH.NewUserHandler(log, s.User, s.Favourite),
		TechnologyHandler: httpH.NewTechnologyHandler(log, s.Technology),
		ProgressHandler:   httpH.NewProgressHandler(log, s.Progress),
		SectorHandler:     httpH.NewSectorHandler(log, s.Sector),
		HealthHandler:     httpH.NewHealthHandler(checks),
	})
}
