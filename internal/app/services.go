package app

import (
	"fmt"

	"github.com/neocube/neocube-backend/internal/modules/roadmap"
	"github.com/neocube/neocube-backend/internal/platform/logger"
	"github.com/neocube/neocube-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Avatar     services.AvatarService
	Analytics  services.AnalyticsService
	User       services.UserService
	Favourite  services.FavouriteService
	Technology services.TechnologyService
	Progress   services.ProgressService
	Sector     services.SectorService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, r Repos) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, cfg.AvatarColors)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	analyticsService := services.NewAnalyticsService(log, r.Analytics)

	var generator roadmap.RoadmapGenerator
	if clients.TextModel != nil {
		generator = roadmap.NewGenerator(log, clients.TextModel, roadmap.Options{
			Steps:            cfg.RoadmapSteps,
			ResourcesPerStep: cfg.ResourcesPerStep,
		})
	}

	return Services{
		Auth:      services.NewAuthService(log, r.User, avatarService, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.AdminEmails),
		Avatar:    avatarService,
		Analytics: analyticsService,
		User:      services.NewUserService(log, r.User, r.Technology, avatarService, analyticsService),
		Favourite: services.NewFavouriteService(log, r.User, r.Technology, analyticsService),
		Technology: services.NewTechnologyService(
			log,
			r.Technology,
			r.Sector,
			generator,
			clients.Cache,
			clients.Locker,
			analyticsService,
			services.TechnologyServiceConfig{
				ListCacheTTL:      cfg.ListCacheTTL,
				GenerationLockTTL: cfg.GenerationLockTTL,
			},
		),
		Progress: services.NewProgressService(log, r.User, r.Technology, analyticsService),
		Sector:   services.NewSectorService(log, r.Sector, r.Technology),
	}, nil
}
