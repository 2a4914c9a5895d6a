// Package roadmaptest provides generator and text model doubles.
package roadmaptest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/modules/roadmap"
)

// StubGenerator returns a fixed result (or error) and counts calls.
type StubGenerator struct {
	mu     sync.Mutex
	Result *roadmap.Result
	Err    error
	calls  int
}

var _ roadmap.RoadmapGenerator = (*StubGenerator)(nil)

func (g *StubGenerator) Generate(ctx context.Context, name, sector string) (*roadmap.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Result == nil {
		return nil, &roadmap.GenerationError{Stage: roadmap.StageProvider, Err: fmt.Errorf("no stub result")}
	}
	cp := *g.Result
	cp.Steps = append([]technology.RoadmapStep(nil), g.Result.Steps...)
	return &cp, nil
}

func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Steps builds n valid roadmap steps.
func Steps(n int) []technology.RoadmapStep {
	out := make([]technology.RoadmapStep, n)
	for i := range out {
		out[i] = technology.RoadmapStep{
			ID:          primitive.NewObjectID(),
			Title:       fmt.Sprintf("Step %d", i+1),
			Description: fmt.Sprintf("Learn part %d", i+1),
			Order:       i + 1,
			Resources: []technology.Resource{
				{Type: technology.ResourceDocumentation, Title: "Docs", URL: "https://example.com/docs"},
			},
			EstimatedHours: 4,
		}
	}
	return out
}

// Result is a ready-made generation result with n steps.
func Result(n int) *roadmap.Result {
	return &roadmap.Result{
		Description: "A technology used for building things at scale.",
		Category:    "Backend",
		Difficulty:  technology.DifficultyIntermediate,
		Steps:       Steps(n),
	}
}

// ScriptedModel answers metadata and roadmap prompts with canned text.
type ScriptedModel struct {
	mu       sync.Mutex
	Metadata string
	Roadmap  string
	Err      error
	Prompts  []string
}

func (m *ScriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if strings.Contains(prompt, "JSON array") {
		return m.Roadmap, nil
	}
	return m.Metadata, nil
}
