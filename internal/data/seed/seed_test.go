package seed_test

import (
	"context"
	"testing"

	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/data/seed"
)

func TestEmbeddedCatalogIsValid(t *testing.T) {
	t.Setenv(seed.CatalogEnv, "")
	c, err := seed.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(c.Sectors) == 0 || len(c.Technologies) == 0 {
		t.Fatalf("expected sectors and technologies, got %d/%d", len(c.Sectors), len(c.Technologies))
	}
}

func TestParseCatalogRejectsUnknownField(t *testing.T) {
	_, err := seed.ParseCatalog([]byte(`
sectors:
  - id: cs
    name: CS
technologies:
  - name: Go
    fieldId: nope
    category: Backend
    difficulty: Beginner
`))
	if err == nil {
		t.Fatalf("expected error for unknown field id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	log := testutil.Logger(t)
	sectors := testutil.NewMemSectorRepo()
	techs := testutil.NewMemTechnologyRepo()

	c, err := seed.ParseCatalog([]byte(`
sectors:
  - id: cs
    name: Computer Science
    order: 1
    categories: [Backend]
technologies:
  - name: Go
    fieldId: cs
    category: backend
    difficulty: intermediate
  - name: C++
    fieldId: cs
    category: Programming Language
    difficulty: Advanced
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	first, err := seed.Run(ctx, log, c, sectors, techs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.TechnologiesCreated != 2 {
		t.Fatalf("first run created %d, want 2", first.TechnologiesCreated)
	}
	second, err := seed.Run(ctx, log, c, sectors, techs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if second.TechnologiesCreated != 0 {
		t.Fatalf("second run created %d, want 0", second.TechnologiesCreated)
	}

	got, err := techs.GetBySlug(ctx, "cplusplus")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.Category != "Programming Language" || len(got.Roadmap) != 0 {
		t.Fatalf("unexpected seeded technology: %+v", got)
	}
	if g, _ := techs.GetBySlug(ctx, "go"); g == nil || g.Difficulty != "Intermediate" {
		t.Fatalf("expected normalized difficulty, got %+v", g)
	}
	if s, err := sectors.GetByID(ctx, "cs"); err != nil || s.Name != "Computer Science" {
		t.Fatalf("sector not upserted: %v %+v", err, s)
	}
}
