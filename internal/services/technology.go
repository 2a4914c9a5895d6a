package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/modules/roadmap"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/cache"
	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

const (
	techCachePrefix       = "tech:"
	defaultTrendingLimit  = 8
	maxShortDescription   = 200
	defaultGenerationLock = 2 * time.Minute
)

type CreateTechnologyInput struct {
	Name             string
	FieldID          string
	Sector           string
	ShortDescription string
	Category         string
	Difficulty       string
	Tags             []string
	Prerequisites    []string
	Icon             string
	Color            string
	IsTrending       bool
}

type TechnologyStats struct {
	Technology technology.Summary `json:"technology"`
	Counts     map[string]int64   `json:"counts"`
}

type TechnologyService interface {
	List(ctx context.Context, f repos.TechnologyListFilter) ([]technology.Summary, error)
	Trending(ctx context.Context, limit int) ([]technology.Summary, error)
	GetBySlug(ctx context.Context, slug string) (*technology.Technology, error)
	Create(ctx context.Context, in CreateTechnologyInput) (*technology.Technology, error)
	Stats(ctx context.Context, slug string) (*TechnologyStats, error)
}

type TechnologyServiceConfig struct {
	ListCacheTTL      time.Duration
	GenerationLockTTL time.Duration
}

type technologyService struct {
	log        *logger.Logger
	techRepo   repos.TechnologyRepo
	sectorRepo repos.SectorRepo
	generator  roadmap.RoadmapGenerator
	cache      cache.Store
	locker     cache.Locker
	analytics  AnalyticsService
	cfg        TechnologyServiceConfig
}

func NewTechnologyService(
	log *logger.Logger,
	techRepo repos.TechnologyRepo,
	sectorRepo repos.SectorRepo,
	generator roadmap.RoadmapGenerator,
	store cache.Store,
	locker cache.Locker,
	analyticsService AnalyticsService,
	cfg TechnologyServiceConfig,
) TechnologyService {
	if cfg.GenerationLockTTL <= 0 {
		cfg.GenerationLockTTL = defaultGenerationLock
	}
	return &technologyService{
		log:        log.With("service", "TechnologyService"),
		techRepo:   techRepo,
		sectorRepo: sectorRepo,
		generator:  generator,
		cache:      store,
		locker:     locker,
		analytics:  analyticsService,
		cfg:        cfg,
	}
}

func (s *technologyService) List(ctx context.Context, f repos.TechnologyListFilter) ([]technology.Summary, error) {
	f.FieldID = strings.TrimSpace(f.FieldID)
	f.Search = strings.TrimSpace(f.Search)
	if strings.TrimSpace(f.Category) != "" {
		cat, ok := technology.NormalizeCategory(f.Category)
		if !ok {
			return nil, apierr.New(http.StatusBadRequest, "invalid_category", fmt.Errorf("unknown category %q", f.Category))
		}
		f.Category = cat
	}

	key := listCacheKey(f)
	var cached []technology.Summary
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	out, err := s.techRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	s.writeCache(ctx, key, out)
	return out, nil
}

func (s *technologyService) Trending(ctx context.Context, limit int) ([]technology.Summary, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultTrendingLimit
	}
	key := techCachePrefix + "trending:" + strconv.Itoa(limit)
	var cached []technology.Summary
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}
	out, err := s.techRepo.Trending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("trending technologies: %w", err)
	}
	s.writeCache(ctx, key, out)
	return out, nil
}

// GetBySlug returns the technology and fills an empty roadmap on first view. Every failure on the
// generation path leaves the stored document untouched and returns it as read.
func (s *technologyService) GetBySlug(ctx context.Context, slug string) (*technology.Technology, error) {
	t, err := s.loadBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(t.Roadmap) == 0 {
		t = s.fillRoadmap(ctx, t)
	}
	if s.analytics != nil {
		s.analytics.Track(ctx, optionalUserID(ctx), t.ID, analytics.ActionView, nil)
	}
	return t, nil
}

func (s *technologyService) loadBySlug(ctx context.Context, slug string) (*technology.Technology, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, apierr.New(http.StatusNotFound, "technology_not_found", errors.New("technology not found"))
	}
	t, err := s.techRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "technology_not_found", errors.New("technology not found"))
		}
		return nil, fmt.Errorf("load technology: %w", err)
	}
	return t, nil
}

func (s *technologyService) fillRoadmap(ctx context.Context, t *technology.Technology) *technology.Technology {
	if s.generator == nil {
		return t
	}
	log := s.log.With("slug", t.Slug)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, "roadmap:"+t.Slug, s.cfg.GenerationLockTTL)
		if err != nil {
			log.Warn("Generation lock unavailable", "error", err)
			return t
		}
		if !ok {
			log.Info("Roadmap generation already in progress")
			return t
		}
		defer release()

		// the previous holder may have finished between our read and the lock
		if fresh, err := s.techRepo.GetByID(ctx, t.ID); err == nil && len(fresh.Roadmap) > 0 {
			return fresh
		}
	}

	res, err := s.generator.Generate(ctx, t.Name, s.sectorName(ctx, t.FieldID))
	if err != nil {
		log.Warn("Roadmap generation failed", "error", err)
		return t
	}

	applied, err := s.techRepo.SetRoadmapIfEmpty(ctx, t.ID, repos.RoadmapPatch{
		Roadmap:         res.Steps,
		LongDescription: res.Description,
		EstimatedTime:   res.EstimatedTime,
	})
	if err != nil {
		log.Warn("Persisting generated roadmap failed", "error", err)
		return t
	}
	if !applied {
		if fresh, err := s.techRepo.GetByID(ctx, t.ID); err == nil {
			return fresh
		}
		return t
	}

	log.Info("Roadmap generated", "steps", len(res.Steps))
	t.Roadmap = res.Steps
	if t.LongDescription == "" {
		t.LongDescription = res.Description
	}
	if t.EstimatedTime == "" {
		t.EstimatedTime = res.EstimatedTime
	}
	s.invalidate(ctx)
	return t
}

func (s *technologyService) Create(ctx context.Context, in CreateTechnologyInput) (*technology.Technology, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID.IsZero() {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("authentication required"))
	}
	if rd.Role != user.RoleAdmin {
		return nil, apierr.New(http.StatusForbidden, "forbidden", errors.New("admin role required"))
	}

	name := strings.TrimSpace(in.Name)
	slug := technology.Slugify(name)
	if name == "" || slug == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_name", errors.New("name must contain letters or digits"))
	}

	category := ""
	if strings.TrimSpace(in.Category) != "" {
		c, ok := technology.NormalizeCategory(in.Category)
		if !ok {
			return nil, apierr.New(http.StatusBadRequest, "invalid_category", fmt.Errorf("unknown category %q", in.Category))
		}
		category = c
	}
	difficulty := ""
	if strings.TrimSpace(in.Difficulty) != "" {
		d, ok := technology.NormalizeDifficulty(in.Difficulty)
		if !ok {
			return nil, apierr.New(http.StatusBadRequest, "invalid_difficulty", fmt.Errorf("unknown difficulty %q", in.Difficulty))
		}
		difficulty = d
	}

	nameKey := technology.NameKey(name)
	exists, err := s.techRepo.NameKeyExists(ctx, nameKey)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if exists {
		return nil, apierr.New(http.StatusConflict, "technology_exists", fmt.Errorf("technology %q already exists", name))
	}

	fieldID := strings.TrimSpace(in.FieldID)
	sectorName := strings.TrimSpace(in.Sector)
	if fieldID != "" {
		sec, err := s.sectorRepo.GetByID(ctx, fieldID)
		if err != nil {
			if errors.Is(err, dberr.ErrNotFound) {
				return nil, apierr.New(http.StatusBadRequest, "invalid_field", fmt.Errorf("unknown field %q", fieldID))
			}
			return nil, fmt.Errorf("load field: %w", err)
		}
		if sectorName == "" {
			sectorName = sec.Name
		}
	}

	if s.generator == nil {
		return nil, apierr.New(http.StatusInternalServerError, "generation_failed", errors.New("no roadmap generator configured"))
	}
	res, err := s.generator.Generate(ctx, name, sectorName)
	if err != nil {
		s.log.Error("Roadmap generation failed on create", "name", name, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "generation_failed", errors.New("failed to generate technology content"))
	}

	if category == "" {
		category = res.Category
	}
	if difficulty == "" {
		difficulty = res.Difficulty
	}
	short := strings.TrimSpace(in.ShortDescription)
	if short == "" {
		short = shortDescription(res.Description)
	}
	createdBy := rd.UserID
	t := &technology.Technology{
		ID:               primitive.NewObjectID(),
		Name:             name,
		NameKey:          nameKey,
		Slug:             slug,
		FieldID:          fieldID,
		ShortDescription: short,
		LongDescription:  res.Description,
		Category:         category,
		Difficulty:       difficulty,
		IsTrending:       in.IsTrending,
		Tags:             cleanStrings(in.Tags),
		EstimatedTime:    res.EstimatedTime,
		Prerequisites:    cleanStrings(in.Prerequisites),
		Icon:             strings.TrimSpace(in.Icon),
		Color:            strings.TrimSpace(in.Color),
		Roadmap:          res.Steps,
		CreatedBy:        &createdBy,
	}
	if err := s.techRepo.Create(ctx, t); err != nil {
		if errors.Is(err, dberr.ErrDuplicate) {
			return nil, apierr.New(http.StatusConflict, "technology_exists", fmt.Errorf("technology %q already exists", name))
		}
		return nil, fmt.Errorf("create technology: %w", err)
	}
	s.invalidate(ctx)
	s.log.Info("Technology created", "slug", t.Slug, "steps", len(t.Roadmap))
	return t, nil
}

func (s *technologyService) Stats(ctx context.Context, slug string) (*TechnologyStats, error) {
	t, err := s.loadBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	if s.analytics != nil {
		if counts, err = s.analytics.CountsForTechnology(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return &TechnologyStats{Technology: t.Summary(), Counts: counts}, nil
}

func (s *technologyService) sectorName(ctx context.Context, fieldID string) string {
	if fieldID == "" || s.sectorRepo == nil {
		return ""
	}
	sec, err := s.sectorRepo.GetByID(ctx, fieldID)
	if err != nil {
		return ""
	}
	return sec.Name
}

func (s *technologyService) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *technologyService) writeCache(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, s.cfg.ListCacheTTL); err != nil {
		s.log.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (s *technologyService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, techCachePrefix); err != nil {
		s.log.Warn("Cache invalidation failed", "error", err)
	}
}

func listCacheKey(f repos.TechnologyListFilter) string {
	q := url.Values{}
	q.Set("fieldId", f.FieldID)
	q.Set("category", f.Category)
	q.Set("search", strings.ToLower(f.Search))
	q.Set("limit", strconv.Itoa(f.Limit))
	return techCachePrefix + "list:" + q.Encode()
}

// shortDescription is the first sentence of the generated description, capped for cards.
func shortDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if i := strings.Index(desc, ". "); i > 0 {
		desc = desc[:i+1]
	}
	r := []rune(desc)
	if len(r) > maxShortDescription {
		return strings.TrimSpace(string(r[:maxShortDescription-3])) + "..."
	}
	return desc
}
