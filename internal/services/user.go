package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const (
	maxBioLength         = 500
	maxInterests         = 20
	dashboardRecentItems = 5
	dashboardActivity    = 10
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type ProfileUpdateInput struct {
	Name            *string
	Username        *string
	Bio             *string
	Avatar          *string
	ExperienceLevel *string
	Interests       *[]string
}

type DashboardCounts struct {
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Favourites int `json:"favourites"`
}

type RecentProgress struct {
	Technology      technology.Summary `json:"technology"`
	PercentComplete int                `json:"percentComplete"`
	State           string             `json:"state"`
	LastAccessed    time.Time          `json:"lastAccessed"`
}

type Dashboard struct {
	Stats          UserStats          `json:"stats"`
	Counts         DashboardCounts    `json:"counts"`
	RecentProgress []RecentProgress   `json:"recentProgress"`
	RecentActivity []*analytics.Event `json:"recentActivity"`
}

type UserService interface {
	GetProfile(ctx context.Context) (*user.User, error)
	UpdateProfile(ctx context.Context, in ProfileUpdateInput) (*user.User, error)
	UploadAvatarImage(ctx context.Context, raw []byte) (*user.User, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	Activity(ctx context.Context, limit int) ([]*analytics.Event, error)
}

type userService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	techRepo      repos.TechnologyRepo
	avatarService AvatarService
	analytics     AnalyticsService
}

func NewUserService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	techRepo repos.TechnologyRepo,
	avatarService AvatarService,
	analyticsService AnalyticsService,
) UserService {
	return &userService{
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		techRepo:      techRepo,
		avatarService: avatarService,
		analytics:     analyticsService,
	}
}

func (us *userService) GetProfile(ctx context.Context) (*user.User, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	return us.load(ctx, uid)
}

func (us *userService) UpdateProfile(ctx context.Context, in ProfileUpdateInput) (*user.User, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}

	var patch repos.ProfilePatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.New(http.StatusBadRequest, "invalid_name", errors.New("name cannot be empty"))
		}
		patch.Name = &name
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		patch.Username = &username
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, apierr.New(http.StatusBadRequest, "invalid_bio", fmt.Errorf("bio must be at most %d characters", maxBioLength))
		}
		patch.Bio = &bio
	}
	if in.ExperienceLevel != nil {
		level := strings.ToLower(strings.TrimSpace(*in.ExperienceLevel))
		if !user.IsExperienceLevel(level) {
			return nil, apierr.New(http.StatusBadRequest, "invalid_experience_level", fmt.Errorf("unknown experience level %q", *in.ExperienceLevel))
		}
		patch.ExperienceLevel = &level
	}
	if in.Interests != nil {
		interests := cleanStrings(*in.Interests)
		if len(interests) > maxInterests {
			return nil, apierr.New(http.StatusBadRequest, "invalid_interests", fmt.Errorf("at most %d interests", maxInterests))
		}
		patch.Interests = &interests
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		if avatar != "" && !validAvatarRef(avatar) {
			return nil, apierr.New(http.StatusBadRequest, "invalid_avatar", errors.New("avatar must be an image data URI or an http(s) URL"))
		}
		patch.Avatar = &avatar
	}

	if patch.Empty() {
		return us.load(ctx, uid)
	}

	// clearing the avatar falls back to the initials image
	if patch.Avatar != nil && *patch.Avatar == "" && us.avatarService != nil {
		current, err := us.load(ctx, uid)
		if err != nil {
			return nil, err
		}
		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if generated, err := us.avatarService.InitialsDataURI(current); err != nil {
			us.log.Warn("Initials avatar failed", "error", err)
		} else {
			patch.Avatar = &generated
		}
	}

	u, err := us.userRepo.UpdateProfile(ctx, uid, patch)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (us *userService) UploadAvatarImage(ctx context.Context, raw []byte) (*user.User, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	if us.avatarService == nil {
		return nil, fmt.Errorf("avatar service not configured")
	}
	avatar, err := us.avatarService.UploadedDataURI(raw)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.UpdateProfile(ctx, uid, repos.ProfilePatch{Avatar: &avatar})
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
		}
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	return u, nil
}

func (us *userService) Dashboard(ctx context.Context) (*Dashboard, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.load(ctx, uid)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Stats:          UserStats{Level: u.Level, Streak: u.Streak, TotalHoursSpent: u.TotalHoursSpent},
		Counts:         DashboardCounts{Favourites: len(u.Favourites)},
		RecentProgress: []RecentProgress{},
		RecentActivity: []*analytics.Event{},
	}
	for i := range u.Progress {
		switch u.Progress[i].State() {
		case user.StateCompleted:
			d.Counts.Completed++
		case user.StateInProgress:
			d.Counts.InProgress++
		}
	}

	recent := make([]user.ProgressEntry, len(u.Progress))
	copy(recent, u.Progress)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].LastAccessed.After(recent[j].LastAccessed) })
	if len(recent) > dashboardRecentItems {
		recent = recent[:dashboardRecentItems]
	}
	if len(recent) > 0 {
		ids := make([]primitive.ObjectID, 0, len(recent))
		for _, p := range recent {
			ids = append(ids, p.Technology)
		}
		summaries, err := us.techRepo.GetSummariesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load recent technologies: %w", err)
		}
		byID := make(map[primitive.ObjectID]technology.Summary, len(summaries))
		for _, s := range summaries {
			byID[s.ID] = s
		}
		for i := range recent {
			s, ok := byID[recent[i].Technology]
			if !ok {
				continue
			}
			d.RecentProgress = append(d.RecentProgress, RecentProgress{
				Technology:      s,
				PercentComplete: recent[i].PercentComplete,
				State:           recent[i].State(),
				LastAccessed:    recent[i].LastAccessed,
			})
		}
	}

	if us.analytics != nil {
		events, err := us.analytics.ListForUser(ctx, uid, dashboardActivity)
		if err != nil {
			us.log.Warn("Dashboard activity unavailable", "error", err)
		} else {
			d.RecentActivity = events
		}
	}
	return d, nil
}

func (us *userService) Activity(ctx context.Context, limit int) ([]*analytics.Event, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if us.analytics == nil {
		return []*analytics.Event{}, nil
	}
	return us.analytics.ListForUser(ctx, uid, limit)
}

func (us *userService) load(ctx context.Context, uid primitive.ObjectID) (*user.User, error) {
	u, err := us.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "user_not_found", errors.New("user not found"))
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func validAvatarRef(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return strings.Contains(s, ";base64,")
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
