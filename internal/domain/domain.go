package domain

import (
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/sector"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
)

type (
	Technology     = technology.Technology
	RoadmapStep    = technology.RoadmapStep
	Resource       = technology.Resource
	User           = user.User
	ProgressEntry  = user.ProgressEntry
	Sector         = sector.Sector
	AnalyticsEvent = analytics.Event
)

// RelationalModels lists the gorm models migrated into the analytics database.
func RelationalModels() []any {
	return []any{&AnalyticsEvent{}}
}
