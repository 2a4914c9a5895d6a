package repos

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/neocube/neocube-backend/internal/data/repos/analytics"
	"github.com/neocube/neocube-backend/internal/data/repos/sector"
	"github.com/neocube/neocube-backend/internal/data/repos/technology"
	"github.com/neocube/neocube-backend/internal/data/repos/user"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type TechnologyRepo = technology.TechnologyRepo
type UserRepo = user.UserRepo
type SectorRepo = sector.SectorRepo
type AnalyticsEventRepo = analytics.EventRepo

type TechnologyListFilter = technology.ListFilter
type RoadmapPatch = technology.RoadmapPatch
type ProfilePatch = user.ProfilePatch

func NewTechnologyRepo(db *mongo.Database, baseLog *logger.Logger) TechnologyRepo {
	return technology.NewTechnologyRepo(db, baseLog)
}
func NewUserRepo(db *mongo.Database, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}
func NewSectorRepo(db *mongo.Database, baseLog *logger.Logger) SectorRepo {
	return sector.NewSectorRepo(db, baseLog)
}

func NewAnalyticsEventRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsEventRepo {
	return analytics.NewEventRepo(db, baseLog)
}
