package technology

import "strings"

const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

var Difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

var Categories = []string{
	"Frontend",
	"Backend",
	"Mobile",
	"DevOps",
	"Cloud",
	"Data Science",
	"AI/ML",
	"Database",
	"Security",
	"Blockchain",
	"Game Development",
	"Embedded",
	"Design",
	"Programming Language",
	"Other",
}

const (
	ResourceArticle       = "article"
	ResourceVideo         = "video"
	ResourceCourse        = "course"
	ResourceDocumentation = "documentation"
	ResourceBook          = "book"
	ResourceTutorial      = "tutorial"
	ResourcePractice      = "practice"
	ResourceProTip        = "pro-tip"
	ResourceQuest         = "quest"
)

var ResourceTypes = []string{
	ResourceArticle, ResourceVideo, ResourceCourse, ResourceDocumentation, ResourceBook,
	ResourceTutorial, ResourcePractice, ResourceProTip, ResourceQuest,
}

// categoryAliases maps common model outputs onto the canonical category names.
var categoryAliases = map[string]string{
	"ai":                   "AI/ML",
	"ml":                   "AI/ML",
	"ai/ml":                "AI/ML",
	"machine learning":     "AI/ML",
	"data":                 "Data Science",
	"devops & cloud":       "DevOps",
	"language":             "Programming Language",
	"programming":          "Programming Language",
	"gamedev":              "Game Development",
	"game dev":             "Game Development",
	"ui/ux":                "Design",
	"databases":            "Database",
	"cybersecurity":        "Security",
	"embedded systems":     "Embedded",
	"mobile development":   "Mobile",
	"frontend development": "Frontend",
	"backend development":  "Backend",
}

// NormalizeCategory maps s onto a canonical category, case-insensitively.
func NormalizeCategory(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", false
	}
	for _, c := range Categories {
		if strings.ToLower(c) == key {
			return c, true
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return "", false
}

func NormalizeDifficulty(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Difficulties {
		if strings.ToLower(d) == key {
			return d, true
		}
	}
	return "", false
}

func IsResourceType(s string) bool {
	for _, t := range ResourceTypes {
		if t == s {
			return true
		}
	}
	return false
}

// IsFreeText reports resource types whose url field holds prose rather than a link.
func IsFreeText(resourceType string) bool {
	return resourceType == ResourceProTip || resourceType == ResourceQuest
}
