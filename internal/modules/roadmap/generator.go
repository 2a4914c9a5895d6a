package roadmap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

// TextModel is a single-turn text completion capability.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RoadmapGenerator is what services depend on.
type RoadmapGenerator interface {
	Generate(ctx context.Context, name, sector string) (*Result, error)
}

type Result struct {
	Description   string
	Category      string
	Difficulty    string
	Steps         []technology.RoadmapStep
	EstimatedTime string
}

type Options struct {
	Steps            int
	ResourcesPerStep int
	NewID            func() primitive.ObjectID
}

type Generator struct {
	log   *logger.Logger
	model TextModel
	opts  Options
}

func NewGenerator(log *logger.Logger, model TextModel, opts Options) *Generator {
	if opts.Steps <= 0 {
		opts.Steps = 10
	}
	if opts.ResourcesPerStep <= 0 {
		opts.ResourcesPerStep = 4
	}
	if opts.NewID == nil {
		opts.NewID = primitive.NewObjectID
	}
	return &Generator{log: log.With("service", "RoadmapGenerator"), model: model, opts: opts}
}

var errNoModel = errors.New("no text model configured")

// Generate runs the metadata and roadmap prompts concurrently. Both must succeed and
// parse; any failure is returned as a *GenerationError. Nothing is persisted here.
func (g *Generator) Generate(ctx context.Context, name, sector string) (*Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, stageErr(StageMetadata, errors.New("technology name is required"))
	}
	if g.model == nil {
		return nil, stageErr(StageProvider, errNoModel)
	}
	if strings.TrimSpace(sector) == "" {
		sector = "Technology"
	}

	start := time.Now()
	var (
		meta  Metadata
		steps []technology.RoadmapStep
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		text, err := g.model.Generate(egCtx, metadataPrompt(name, sector))
		if err != nil {
			return stageErr(StageProvider, fmt.Errorf("metadata prompt: %w", err))
		}
		m, err := parseMetadata(text)
		if err != nil {
			return stageErr(StageMetadata, err)
		}
		meta = m
		return nil
	})
	eg.Go(func() error {
		text, err := g.model.Generate(egCtx, roadmapPrompt(name, sector, g.opts.Steps, g.opts.ResourcesPerStep))
		if err != nil {
			return stageErr(StageProvider, fmt.Errorf("roadmap prompt: %w", err))
		}
		s, err := parseRoadmap(text, g.opts.NewID)
		if err != nil {
			return stageErr(StageRoadmap, err)
		}
		steps = s
		return nil
	})
	if err := eg.Wait(); err != nil {
		g.log.Warn("Roadmap generation failed", "technology", name, "error", err)
		return nil, err
	}

	res := &Result{
		Description:   meta.Description,
		Category:      meta.Category,
		Difficulty:    meta.Difficulty,
		Steps:         steps,
		EstimatedTime: formatHours(steps),
	}
	g.log.Info("Roadmap generated",
		"technology", name,
		"steps", len(steps),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func formatHours(steps []technology.RoadmapStep) string {
	total := 0
	for _, s := range steps {
		total += s.EstimatedHours
	}
	if total <= 0 {
		return ""
	}
	if total == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", total)
}
