package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const analyticsWriteTimeout = 3 * time.Second

// AnalyticsService appends to the analytics log. Track never fails the caller's operation.
type AnalyticsService interface {
	Track(ctx context.Context, userID, techID primitive.ObjectID, action string, metadata map[string]any)
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*analytics.Event, error)
	CountsForTechnology(ctx context.Context, techID primitive.ObjectID) (map[string]int64, error)
}

type analyticsService struct {
	log  *logger.Logger
	repo repos.AnalyticsEventRepo
	now  func() time.Time
}

func NewAnalyticsService(baseLog *logger.Logger, repo repos.AnalyticsEventRepo) AnalyticsService {
	return &analyticsService{
		log:  baseLog.With("service", "AnalyticsService"),
		repo: repo,
		now:  time.Now,
	}
}

func (s *analyticsService) Track(ctx context.Context, userID, techID primitive.ObjectID, action string, metadata map[string]any) {
	if userID.IsZero() {
		return
	}
	if !analytics.IsAction(action) {
		s.log.Warn("Dropping analytics event with unknown action", "action", action)
		return
	}
	ev := &analytics.Event{
		UserID:     userID.Hex(),
		ActionType: action,
		Timestamp:  s.now().UTC(),
	}
	if !techID.IsZero() {
		ev.TechnologyID = techID.Hex()
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("Analytics metadata not serializable", "action", action, "error", err)
		} else {
			ev.Metadata = datatypes.JSON(raw)
		}
	}

	// the write outlives a client disconnect but not a stuck database
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), analyticsWriteTimeout)
	defer cancel()
	if _, err := s.repo.Create(writeCtx, nil, []*analytics.Event{ev}); err != nil {
		s.log.Warn("Analytics write failed", "action", action, "technology_id", ev.TechnologyID, "error", err)
	}
}

func (s *analyticsService) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*analytics.Event, error) {
	events, err := s.repo.ListByUser(ctx, nil, userID.Hex(), limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}

func (s *analyticsService) CountsForTechnology(ctx context.Context, techID primitive.ObjectID) (map[string]int64, error) {
	counts, err := s.repo.CountByAction(ctx, nil, techID.Hex())
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	for _, a := range analytics.Actions {
		if _, ok := counts[a]; !ok {
			counts[a] = 0
		}
	}
	return counts, nil
}
