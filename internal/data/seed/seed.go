package seed

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/domain/sector"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

// CatalogEnv points at a YAML file that replaces the embedded catalog.
const CatalogEnv = "NEOCUBE_CATALOG_YAML"

//go:embed catalog.yaml
var catalogFS embed.FS

type Catalog struct {
	Sectors      []sector.Sector     `yaml:"sectors"`
	Technologies []StarterTechnology `yaml:"technologies"`
}

// StarterTechnology is inserted with an empty roadmap, which is generated on first view.
type StarterTechnology struct {
	Name             string   `yaml:"name"`
	FieldID          string   `yaml:"fieldId"`
	Category         string   `yaml:"category"`
	Difficulty       string   `yaml:"difficulty"`
	ShortDescription string   `yaml:"shortDescription"`
	Tags             []string `yaml:"tags"`
	Icon             string   `yaml:"icon"`
	Color            string   `yaml:"color"`
	IsTrending       bool     `yaml:"isTrending"`
}

func readCatalog() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(CatalogEnv)); path != "" {
		return os.ReadFile(path)
	}
	return catalogFS.ReadFile("catalog.yaml")
}

func LoadCatalog() (*Catalog, error) {
	data, err := readCatalog()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	sectors := map[string]bool{}
	for i, s := range c.Sectors {
		if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("catalog sector %d: id and name required", i)
		}
		if sectors[s.ID] {
			return fmt.Errorf("catalog sector %q: duplicate id", s.ID)
		}
		sectors[s.ID] = true
		for _, cat := range s.Categories {
			if _, ok := technology.NormalizeCategory(cat); !ok {
				return fmt.Errorf("catalog sector %q: unknown category %q", s.ID, cat)
			}
		}
	}
	slugs := map[string]bool{}
	for i, t := range c.Technologies {
		slug := technology.Slugify(t.Name)
		if slug == "" {
			return fmt.Errorf("catalog technology %d: name required", i)
		}
		if slugs[slug] {
			return fmt.Errorf("catalog technology %q: duplicate slug", t.Name)
		}
		slugs[slug] = true
		if t.FieldID != "" && !sectors[t.FieldID] {
			return fmt.Errorf("catalog technology %q: unknown field %q", t.Name, t.FieldID)
		}
		if _, ok := technology.NormalizeCategory(t.Category); !ok {
			return fmt.Errorf("catalog technology %q: unknown category %q", t.Name, t.Category)
		}
		if _, ok := technology.NormalizeDifficulty(t.Difficulty); !ok {
			return fmt.Errorf("catalog technology %q: unknown difficulty %q", t.Name, t.Difficulty)
		}
	}
	return nil
}

type Result struct {
	Sectors             int
	TechnologiesCreated int
}

// Run upserts every sector and inserts starter technologies whose slug is not taken yet.
// It is safe to run on every start.
func Run(ctx context.Context, log *logger.Logger, c *Catalog, sectorRepo repos.SectorRepo, techRepo repos.TechnologyRepo) (Result, error) {
	log = log.With("component", "CatalogSeed")
	var res Result
	for i := range c.Sectors {
		s := c.Sectors[i]
		if s.Categories == nil {
			s.Categories = []string{}
		}
		if err := sectorRepo.Upsert(ctx, &s); err != nil {
			return res, fmt.Errorf("upsert sector %q: %w", s.ID, err)
		}
		res.Sectors++
	}
	for _, st := range c.Technologies {
		category, _ := technology.NormalizeCategory(st.Category)
		difficulty, _ := technology.NormalizeDifficulty(st.Difficulty)
		t := &technology.Technology{
			Name:             strings.TrimSpace(st.Name),
			NameKey:          technology.NameKey(st.Name),
			Slug:             technology.Slugify(st.Name),
			FieldID:          st.FieldID,
			ShortDescription: st.ShortDescription,
			Category:         category,
			Difficulty:       difficulty,
			IsTrending:       st.IsTrending,
			Tags:             st.Tags,
			Icon:             st.Icon,
			Color:            st.Color,
		}
		created, err := techRepo.InsertIfMissing(ctx, t)
		if err != nil {
			return res, fmt.Errorf("insert technology %q: %w", t.Slug, err)
		}
		if created {
			res.TechnologiesCreated++
		}
	}
	log.Info("Catalog seeded", "sectors", res.Sectors, "technologies_created", res.TechnologiesCreated)
	return res, nil
}
