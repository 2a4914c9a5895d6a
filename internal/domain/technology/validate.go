package technology

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the resource type and that link resources carry an absolute http(s) URL.
func (r Resource) Validate() error {
	if !IsResourceType(r.Type) {
		return fmt.Errorf("unknown resource type %q", r.Type)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("resource title is required")
	}
	if IsFreeText(r.Type) {
		if strings.TrimSpace(r.URL) == "" {
			return fmt.Errorf("%s resource needs text", r.Type)
		}
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("resource %q has invalid url %q", r.Title, r.URL)
	}
	return nil
}

// ValidateRoadmap checks step order (1..n), titles and resources.
func ValidateRoadmap(steps []RoadmapStep) error {
	for i, s := range steps {
		if s.Order != i+1 {
			return fmt.Errorf("step %d has order %d", i+1, s.Order)
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("step %d has no title", i+1)
		}
		if s.EstimatedHours < 0 {
			return fmt.Errorf("step %d has negative hours", i+1)
		}
		for _, r := range s.Resources {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}
