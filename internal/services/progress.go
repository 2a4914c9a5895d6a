package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const maxProgressSaveAttempts = 3

type StepUpdateInput struct {
	StepIndex  int
	Status     string
	Notes      *string
	HoursSpent float64
}

type UserStats struct {
	Level           int     `json:"level"`
	Streak          int     `json:"streak"`
	TotalHoursSpent float64 `json:"totalHoursSpent"`
}

// ProgressView is a progress entry plus its derived state and the user's refreshed stats.
type ProgressView struct {
	user.ProgressEntry
	State string    `json:"state"`
	Stats UserStats `json:"stats"`
}

type ProgressService interface {
	UpdateBySlug(ctx context.Context, slug string, in StepUpdateInput) (*ProgressView, error)
	UpdateStepByID(ctx context.Context, techID, stepID primitive.ObjectID, status string) (*ProgressView, error)
	Start(ctx context.Context, techID primitive.ObjectID) (*ProgressView, error)
	Get(ctx context.Context, techID primitive.ObjectID) (*ProgressView, error)
}

type progressService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	techRepo  repos.TechnologyRepo
	analytics AnalyticsService
	now       func() time.Time
}

func NewProgressService(log *logger.Logger, userRepo repos.UserRepo, techRepo repos.TechnologyRepo, analyticsService AnalyticsService) ProgressService {
	return &progressService{
		log:       log.With("service", "ProgressService"),
		userRepo:  userRepo,
		techRepo:  techRepo,
		analytics: analyticsService,
		now:       time.Now,
	}
}

type pendingEvent struct {
	action   string
	metadata map[string]any
}

func (s *progressService) UpdateBySlug(ctx context.Context, slug string, in StepUpdateInput) (*ProgressView, error) {
	t, err := s.techRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, technologyLoadErr(err)
	}
	return s.applyStep(ctx, t, in)
}

func (s *progressService) UpdateStepByID(ctx context.Context, techID, stepID primitive.ObjectID, status string) (*ProgressView, error) {
	t, err := s.techRepo.GetByID(ctx, techID)
	if err != nil {
		return nil, technologyLoadErr(err)
	}
	idx := t.StepIndexByID(stepID)
	if idx < 0 {
		return nil, apierr.New(http.StatusNotFound, "step_not_found", errors.New("roadmap step not found"))
	}
	if strings.TrimSpace(status) == "" {
		status = string(user.StepCompleted)
	}
	return s.applyStep(ctx, t, StepUpdateInput{StepIndex: idx, Status: status})
}

func (s *progressService) applyStep(ctx context.Context, t *technology.Technology, in StepUpdateInput) (*ProgressView, error) {
	total := len(t.Roadmap)
	if total == 0 {
		return nil, apierr.New(http.StatusConflict, "roadmap_empty", errors.New("technology has no roadmap yet"))
	}
	upd := user.StepUpdate{
		StepIndex:  in.StepIndex,
		Status:     user.StepStatus(strings.ToLower(strings.TrimSpace(in.Status))),
		Notes:      in.Notes,
		HoursSpent: in.HoursSpent,
	}
	if in.StepIndex >= 0 && in.StepIndex < total {
		upd.StepID = t.Roadmap[in.StepIndex].ID
	}

	return s.mutate(ctx, t, func(u *user.User, now time.Time) ([]pendingEvent, error) {
		p, created := u.EnsureProgress(t.ID, total, now)
		became, err := p.ApplyStep(upd, total, now)
		if err != nil {
			return nil, err
		}
		var events []pendingEvent
		if created {
			events = append(events, pendingEvent{action: analytics.ActionStart})
		}
		if became {
			events = append(events, pendingEvent{
				action:   analytics.ActionCompleteStep,
				metadata: map[string]any{"stepIndex": upd.StepIndex, "stepId": upd.StepID.Hex()},
			})
		}
		return events, nil
	})
}

func (s *progressService) Start(ctx context.Context, techID primitive.ObjectID) (*ProgressView, error) {
	t, err := s.techRepo.GetByID(ctx, techID)
	if err != nil {
		return nil, technologyLoadErr(err)
	}
	return s.mutate(ctx, t, func(u *user.User, now time.Time) ([]pendingEvent, error) {
		p, created := u.EnsureProgress(t.ID, len(t.Roadmap), now)
		if !created {
			p.LastAccessed = now
			return nil, nil
		}
		return []pendingEvent{{action: analytics.ActionStart}}, nil
	})
}

func (s *progressService) Get(ctx context.Context, techID primitive.ObjectID) (*ProgressView, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.techRepo.GetByID(ctx, techID)
	if err != nil {
		return nil, technologyLoadErr(err)
	}
	u, err := s.loadUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p := u.FindProgress(t.ID); p != nil {
		return newProgressView(u, p), nil
	}
	return newProgressView(u, &user.ProgressEntry{
		Technology: t.ID,
		Steps:      []user.StepProgress{},
		TotalSteps: len(t.Roadmap),
	}), nil
}

// mutate reloads the user, applies fn and saves the progress fields under the version guard,
// retrying a bounded number of times on concurrent writes. A validation error from fn aborts
// before anything is written.
func (s *progressService) mutate(
	ctx context.Context,
	t *technology.Technology,
	fn func(u *user.User, now time.Time) ([]pendingEvent, error),
) (*ProgressView, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxProgressSaveAttempts; attempt++ {
		u, err := s.loadUser(ctx, uid)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		events, err := fn(u, now)
		if err != nil {
			return nil, progressValidationErr(err)
		}
		u.TouchActivity(now)
		u.RecomputeStats()

		if err := s.userRepo.SaveProgress(ctx, u); err != nil {
			if errors.Is(err, dberr.ErrVersionConflict) {
				s.log.Debug("Progress save conflicted, retrying", "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("save progress: %w", err)
		}

		if s.analytics != nil {
			for _, ev := range events {
				s.analytics.Track(ctx, uid, t.ID, ev.action, ev.metadata)
			}
		}
		return newProgressView(u, u.FindProgress(t.ID)), nil
	}
	return nil, apierr.New(http.StatusConflict, "concurrent_update", errors.New("progress changed concurrently, please retry"))
}

func (s *progressService) loadUser(ctx context.Context, uid primitive.ObjectID) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func newProgressView(u *user.User, p *user.ProgressEntry) *ProgressView {
	v := &ProgressView{
		State: p.State(),
		Stats: UserStats{Level: u.Level, Streak: u.Streak, TotalHoursSpent: u.TotalHoursSpent},
	}
	v.ProgressEntry = *p
	return v
}

func technologyLoadErr(err error) error {
	if errors.Is(err, dberr.ErrNotFound) {
		return apierr.New(http.StatusNotFound, "technology_not_found", errors.New("technology not found"))
	}
	return fmt.Errorf("load technology: %w", err)
}

func progressValidationErr(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidStatus):
		return apierr.New(http.StatusBadRequest, "invalid_status", err)
	case errors.Is(err, user.ErrStepOutOfRange):
		return apierr.New(http.StatusBadRequest, "invalid_step", err)
	case errors.Is(err, user.ErrNegativeHours):
		return apierr.New(http.StatusBadRequest, "invalid_hours", err)
	}
	return err
}
