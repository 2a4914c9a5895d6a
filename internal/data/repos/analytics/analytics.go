package analytics

import (
	"context"

	"gorm.io/gorm"

	types "github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.Event, error)
	ListByTechnology(ctx context.Context, tx *gorm.DB, technologyID string, limit int) ([]*types.Event, error)
	CountByAction(ctx context.Context, tx *gorm.DB, technologyID string) (map[string]int64, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	repoLog := baseLog.With("repo", "AnalyticsEventRepo")
	return &eventRepo{db: db, log: repoLog}
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return []*types.Event{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Event
	if userID == "" {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRepo) ListByTechnology(ctx context.Context, tx *gorm.DB, technologyID string, limit int) ([]*types.Event, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Event
	if technologyID == "" {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("technology_id = ?", technologyID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRepo) CountByAction(ctx context.Context, tx *gorm.DB, technologyID string) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		ActionType string
		N          int64
	}
	var rows []row
	if err := transaction.WithContext(ctx).
		Model(&types.Event{}).
		Select("action_type, COUNT(*) AS n").
		Where("technology_id = ?", technologyID).
		Group("action_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ActionType] = r.N
	}
	return out, nil
}
