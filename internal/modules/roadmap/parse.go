package roadmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/domain/technology"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type metadataPayload struct {
	Description string `json:"description" validate:"required,min=10"`
	Category    string `json:"category" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"required"`
}

type resourcePayload struct {
	Type       string `json:"type" validate:"required"`
	Title      string `json:"title" validate:"required"`
	URL        string `json:"url" validate:"required"`
	Duration   string `json:"duration,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type stepPayload struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Duration    string            `json:"duration"`
	Resources   []resourcePayload `json:"resources" validate:"max=10,dive"`
}

type roadmapPayload struct {
	Steps []stepPayload `validate:"min=1,max=20,dive"`
}

// Metadata is the normalized result of the metadata prompt.
type Metadata struct {
	Description string
	Category    string
	Difficulty  string
}

var errNoJSON = errors.New("no JSON payload found in model output")

// extractJSON strips code fences and slices from the first open to the last close delimiter.
func extractJSON(text string, open, close byte) (string, error) {
	s := strings.ReplaceAll(text, "```", "")
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

func parseMetadata(text string) (Metadata, error) {
	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return Metadata{}, err
	}
	var p metadataPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata: %w", err)
	}
	cat, ok := technology.NormalizeCategory(p.Category)
	if !ok {
		return Metadata{}, fmt.Errorf("unknown category %q", p.Category)
	}
	diff, ok := technology.NormalizeDifficulty(p.Difficulty)
	if !ok {
		return Metadata{}, fmt.Errorf("unknown difficulty %q", p.Difficulty)
	}
	return Metadata{Description: strings.TrimSpace(p.Description), Category: cat, Difficulty: diff}, nil
}

var resourceTypeAliases = map[string]string{
	"docs":     technology.ResourceDocumentation,
	"doc":      technology.ResourceDocumentation,
	"tip":      technology.ResourceProTip,
	"protip":   technology.ResourceProTip,
	"pro tip":  technology.ResourceProTip,
	"exercise": technology.ResourcePractice,
	"project":  technology.ResourcePractice,
	"blog":     technology.ResourceArticle,
}

func normalizeResourceType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	if alias, ok := resourceTypeAliases[key]; ok {
		return alias
	}
	return key
}

// parseRoadmap returns the step payloads converted to roadmap steps with ids, orders and hours.
func parseRoadmap(text string, newID func() primitive.ObjectID) ([]technology.RoadmapStep, error) {
	raw, err := extractJSON(text, '[', ']')
	if err != nil {
		return nil, err
	}
	var p roadmapPayload
	if err := json.Unmarshal([]byte(raw), &p.Steps); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid roadmap: %w", err)
	}

	steps := make([]technology.RoadmapStep, 0, len(p.Steps))
	for i, sp := range p.Steps {
		step := technology.RoadmapStep{
			ID:             newID(),
			Title:          strings.TrimSpace(sp.Title),
			Description:    strings.TrimSpace(sp.Description),
			Order:          i + 1,
			EstimatedHours: parseHours(sp.Duration),
			Resources:      make([]technology.Resource, 0, len(sp.Resources)),
		}
		for _, rp := range sp.Resources {
			step.Resources = append(step.Resources, technology.Resource{
				Type:       normalizeResourceType(rp.Type),
				Title:      strings.TrimSpace(rp.Title),
				URL:        strings.TrimSpace(rp.URL),
				Duration:   strings.TrimSpace(rp.Duration),
				Difficulty: strings.TrimSpace(rp.Difficulty),
			})
		}
		steps = append(steps, step)
	}
	if err := technology.ValidateRoadmap(steps); err != nil {
		return nil, err
	}
	return steps, nil
}
