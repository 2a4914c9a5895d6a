package technology

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Technology struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name             string              `bson:"name" json:"name"`
	NameKey          string              `bson:"nameKey" json:"-"`
	Slug             string              `bson:"slug" json:"slug"`
	FieldID          string              `bson:"fieldId" json:"fieldId"`
	ShortDescription string              `bson:"shortDescription" json:"shortDescription"`
	LongDescription  string              `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	Category         string              `bson:"category" json:"category"`
	Difficulty       string              `bson:"difficulty" json:"difficulty"`
	IsTrending       bool                `bson:"isTrending" json:"isTrending"`
	Tags             []string            `bson:"tags,omitempty" json:"tags"`
	EstimatedTime    string              `bson:"estimatedTime,omitempty" json:"estimatedTime,omitempty"`
	Prerequisites    []string            `bson:"prerequisites,omitempty" json:"prerequisites"`
	Icon             string              `bson:"icon,omitempty" json:"icon,omitempty"`
	Color            string              `bson:"color,omitempty" json:"color,omitempty"`
	Roadmap          []RoadmapStep       `bson:"roadmap" json:"roadmap,omitempty"`
	Popularity       int                 `bson:"popularity" json:"popularity"`
	CreatedBy        *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RoadmapStep is embedded in a technology. Steps are written in bulk and never edited one by one.
type RoadmapStep struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Resources      []Resource         `bson:"resources" json:"resources"`
	Order          int                `bson:"order" json:"order"`
	EstimatedHours int                `bson:"estimatedHours" json:"estimatedHours"`
}

type Resource struct {
	Type       string `bson:"type" json:"type"`
	Title      string `bson:"title" json:"title"`
	URL        string `bson:"url" json:"url"`
	Duration   string `bson:"duration,omitempty" json:"duration,omitempty"`
	Difficulty string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// Summary is a technology without its roadmap, used by listings and dashboards.
type Summary struct {
	ID               primitive.ObjectID `bson:"_id" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	Slug             string             `bson:"slug" json:"slug"`
	FieldID          string             `bson:"fieldId" json:"fieldId"`
	ShortDescription string             `bson:"shortDescription" json:"shortDescription"`
	Category         string             `bson:"category" json:"category"`
	Difficulty       string             `bson:"difficulty" json:"difficulty"`
	IsTrending       bool               `bson:"isTrending" json:"isTrending"`
	Tags             []string           `bson:"tags,omitempty" json:"tags"`
	EstimatedTime    string             `bson:"estimatedTime,omitempty" json:"estimatedTime,omitempty"`
	Icon             string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Color            string             `bson:"color,omitempty" json:"color,omitempty"`
	Popularity       int                `bson:"popularity" json:"popularity"`
}

func (t *Technology) Summary() Summary {
	return Summary{
		ID:               t.ID,
		Name:             t.Name,
		Slug:             t.Slug,
		FieldID:          t.FieldID,
		ShortDescription: t.ShortDescription,
		Category:         t.Category,
		Difficulty:       t.Difficulty,
		IsTrending:       t.IsTrending,
		Tags:             t.Tags,
		EstimatedTime:    t.EstimatedTime,
		Icon:             t.Icon,
		Color:            t.Color,
		Popularity:       t.Popularity,
	}
}

// TotalHours sums estimated hours across the roadmap.
func (t *Technology) TotalHours() int {
	total := 0
	for _, s := range t.Roadmap {
		total += s.EstimatedHours
	}
	return total
}

// StepIndexByID returns the roadmap index of a step, or -1.
func (t *Technology) StepIndexByID(id primitive.ObjectID) int {
	for i, s := range t.Roadmap {
		if s.ID == id {
			return i
		}
	}
	return -1
}
