package roadmap

import (
	"fmt"
	"strings"

	"github.com/neocube/neocube-backend/internal/domain/technology"
)

func metadataPrompt(name, sector string) string {
	return fmt.Sprintf(`You are a senior engineer curating a technology catalog.
Describe the technology "%s" as used in the "%s" sector.

Respond with ONLY a JSON object, no prose, using exactly these keys:
{
  "description": "2-3 sentences on what it is and why it matters",
  "category": one of [%s],
  "difficulty": one of [%s]
}`, name, sector, quoteAll(technology.Categories), quoteAll(technology.Difficulties))
}

func roadmapPrompt(name, sector string, steps, resources int) string {
	return fmt.Sprintf(`You are a senior engineer designing a learning roadmap for "%s" (%s sector).

Produce exactly %d sequential steps from fundamentals to advanced practice.
Respond with ONLY a JSON array, no prose. Each element must be:
{
  "title": "short step title",
  "description": "what to learn and why",
  "duration": "estimated time such as \"6 hours\", \"3 days\" or \"1 week\"",
  "resources": [
    {"type": one of [%s], "title": "resource title", "url": "https://..."}
  ]
}

Give every step %d resources. Link resources must use real absolute https URLs.
Resources of type "pro-tip" or "quest" put their text in "url" instead of a link.`,
		name, sector, steps, quoteAll(technology.ResourceTypes), resources)
}

func quoteAll(vals []string) string {
	q := make([]string, len(vals))
	for i, v := range vals {
		q[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(q, ", ")
}
