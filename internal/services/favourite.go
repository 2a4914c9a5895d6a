package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type FavouriteService interface {
	Add(ctx context.Context, techID primitive.ObjectID) error
	Remove(ctx context.Context, techID primitive.ObjectID) error
	List(ctx context.Context) ([]technology.Summary, error)
}

type favouriteService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	techRepo  repos.TechnologyRepo
	analytics AnalyticsService
}

func NewFavouriteService(log *logger.Logger, userRepo repos.UserRepo, techRepo repos.TechnologyRepo, analyticsService AnalyticsService) FavouriteService {
	return &favouriteService{
		log:       log.With("service", "FavouriteService"),
		userRepo:  userRepo,
		techRepo:  techRepo,
		analytics: analyticsService,
	}
}

// Add records the favourite first; popularity and analytics only follow a membership change.
func (s *favouriteService) Add(ctx context.Context, techID primitive.ObjectID) error {
	uid, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	if _, err := s.techRepo.GetByID(ctx, techID); err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return apierr.New(http.StatusNotFound, "technology_not_found", errors.New("technology not found"))
		}
		return fmt.Errorf("load technology: %w", err)
	}

	added, err := s.userRepo.AddFavourite(ctx, uid, techID)
	if err != nil {
		return fmt.Errorf("add favourite: %w", err)
	}
	if !added {
		return apierr.New(http.StatusConflict, "already_favourite", errors.New("technology is already in favourites"))
	}

	if err := s.techRepo.IncPopularity(ctx, techID, 1); err != nil {
		s.log.Warn("Popularity increment failed", "technology_id", techID.Hex(), "error", err)
	}
	if s.analytics != nil {
		s.analytics.Track(ctx, uid, techID, analytics.ActionFavorite, nil)
	}
	return nil
}

func (s *favouriteService) Remove(ctx context.Context, techID primitive.ObjectID) error {
	uid, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	removed, err := s.userRepo.RemoveFavourite(ctx, uid, techID)
	if err != nil {
		return fmt.Errorf("remove favourite: %w", err)
	}
	if !removed {
		return apierr.New(http.StatusNotFound, "not_favourite", errors.New("technology is not in favourites"))
	}

	if err := s.techRepo.IncPopularity(ctx, techID, -1); err != nil {
		s.log.Warn("Popularity decrement failed", "technology_id", techID.Hex(), "error", err)
	}
	if s.analytics != nil {
		s.analytics.Track(ctx, uid, techID, analytics.ActionUnfavorite, nil)
	}
	return nil
}

func (s *favouriteService) List(ctx context.Context) ([]technology.Summary, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(u.Favourites) == 0 {
		return []technology.Summary{}, nil
	}
	out, err := s.techRepo.GetSummariesByIDs(ctx, u.Favourites)
	if err != nil {
		return nil, fmt.Errorf("load favourites: %w", err)
	}
	return out, nil
}
