package app

import (
	"context"
	"fmt"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type Repos struct {
	Technology repos.TechnologyRepo
	User       repos.UserRepo
	Sector     repos.SectorRepo
	Analytics  repos.AnalyticsEventRepo
}

func wireRepos(ctx context.Context, log *logger.Logger, clients Clients) (Repos, error) {
	log.Info("Wiring repos...")
	mdb := clients.Mongo.DB()
	r := Repos{
		Technology: repos.NewTechnologyRepo(mdb, log),
		User:       repos.NewUserRepo(mdb, log),
		Sector:     repos.NewSectorRepo(mdb, log),
		Analytics:  repos.NewAnalyticsEventRepo(clients.Analytics.DB(), log),
	}
	if err := r.Technology.EnsureIndexes(ctx); err != nil {
		return Repos{}, fmt.Errorf("technology indexes: %w", err)
	}
	if err := r.User.EnsureIndexes(ctx); err != nil {
		return Repos{}, fmt.Errorf("user indexes: %w", err)
	}
	return r, nil
}
