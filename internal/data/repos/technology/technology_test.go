package technology_test

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	techrepo "github.com/neocube/neocube-backend/internal/data/repos/technology"
	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/domain/technology"
)

func TestTechnologyRepo(t *testing.T) {
	db := testutil.MongoDB(t)
	repo := techrepo.NewTechnologyRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if err := repo.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	goTech := &technology.Technology{
		Name: "Go", NameKey: "go", Slug: "go", FieldID: "computer-science",
		Category: "Backend", Difficulty: technology.DifficultyBeginner, Popularity: 3,
	}
	if err := repo.Create(ctx, goTech); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &technology.Technology{Name: "GO", NameKey: "go", Slug: "go-2"}
	if err := repo.Create(ctx, dup); !errors.Is(err, dberr.ErrDuplicate) {
		t.Fatalf("Create duplicate nameKey: expected ErrDuplicate, got %v", err)
	}

	exists, err := repo.NameKeyExists(ctx, "go")
	if err != nil || !exists {
		t.Fatalf("NameKeyExists: exists=%v err=%v", exists, err)
	}

	list, err := repo.List(ctx, techrepo.ListFilter{Search: "g.", FieldID: "computer-science"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("List: regex metacharacters must be quoted, got %d results", len(list))
	}
	list, err = repo.List(ctx, techrepo.ListFilter{Search: "G"})
	if err != nil || len(list) != 1 {
		t.Fatalf("List: got=%d err=%v", len(list), err)
	}

	steps := []technology.RoadmapStep{{ID: primitive.NewObjectID(), Title: "Tour", Order: 1}}
	applied, err := repo.SetRoadmapIfEmpty(ctx, goTech.ID, techrepo.RoadmapPatch{Roadmap: steps})
	if err != nil || !applied {
		t.Fatalf("SetRoadmapIfEmpty: applied=%v err=%v", applied, err)
	}
	applied, err = repo.SetRoadmapIfEmpty(ctx, goTech.ID, techrepo.RoadmapPatch{Roadmap: append(steps, steps...)})
	if err != nil || applied {
		t.Fatalf("SetRoadmapIfEmpty on populated roadmap: applied=%v err=%v", applied, err)
	}
	got, err := repo.GetBySlug(ctx, "go")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if len(got.Roadmap) != 1 {
		t.Fatalf("roadmap: expected 1 step, got %d", len(got.Roadmap))
	}

	curated := &technology.Technology{
		Name: "Rust", NameKey: "rust", Slug: "rust", LongDescription: "Curated text.",
	}
	if err := repo.Create(ctx, curated); err != nil {
		t.Fatalf("Create: %v", err)
	}
	applied, err = repo.SetRoadmapIfEmpty(ctx, curated.ID, techrepo.RoadmapPatch{
		Roadmap: steps, LongDescription: "Generated text.", EstimatedTime: "6 weeks",
	})
	if err != nil || !applied {
		t.Fatalf("SetRoadmapIfEmpty curated: applied=%v err=%v", applied, err)
	}
	got, _ = repo.GetByID(ctx, curated.ID)
	if got.LongDescription != "Curated text." || got.EstimatedTime != "6 weeks" {
		t.Fatalf("expected curated description kept and blank estimate filled, got %q / %q",
			got.LongDescription, got.EstimatedTime)
	}

	for i := 0; i < 5; i++ {
		if err := repo.IncPopularity(ctx, goTech.ID, -1); err != nil {
			t.Fatalf("IncPopularity: %v", err)
		}
	}
	got, _ = repo.GetByID(ctx, goTech.ID)
	if got.Popularity != 0 {
		t.Fatalf("popularity should floor at 0, got %d", got.Popularity)
	}

	if _, err := repo.GetBySlug(ctx, "missing"); !errors.Is(err, dberr.ErrNotFound) {
		t.Fatalf("GetBySlug missing: expected ErrNotFound, got %v", err)
	}

	inserted, err := repo.InsertIfMissing(ctx, &technology.Technology{Name: "Go", NameKey: "go-seed", Slug: "go"})
	if err != nil || inserted {
		t.Fatalf("InsertIfMissing existing slug: inserted=%v err=%v", inserted, err)
	}
}
