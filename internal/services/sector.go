package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/sector"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type SectorDetail struct {
	sector.Sector
	Technologies []technology.Summary `json:"technologies"`
}

type SectorService interface {
	List(ctx context.Context) ([]sector.Sector, error)
	Get(ctx context.Context, id string) (*SectorDetail, error)
}

type sectorService struct {
	log        *logger.Logger
	sectorRepo repos.SectorRepo
	techRepo   repos.TechnologyRepo
}

func NewSectorService(log *logger.Logger, sectorRepo repos.SectorRepo, techRepo repos.TechnologyRepo) SectorService {
	return &sectorService{
		log:        log.With("service", "SectorService"),
		sectorRepo: sectorRepo,
		techRepo:   techRepo,
	}
}

func (s *sectorService) List(ctx context.Context) ([]sector.Sector, error) {
	out, err := s.sectorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	return out, nil
}

func (s *sectorService) Get(ctx context.Context, id string) (*SectorDetail, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	sec, err := s.sectorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusNotFound, "field_not_found", errors.New("field not found"))
		}
		return nil, fmt.Errorf("load field: %w", err)
	}
	techs, err := s.techRepo.List(ctx, repos.TechnologyListFilter{FieldID: sec.ID})
	if err != nil {
		return nil, fmt.Errorf("list field technologies: %w", err)
	}
	return &SectorDetail{Sector: *sec, Technologies: techs}, nil
}
