package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/neocube/neocube-backend/internal/app"
	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type slugList []string

func (l *slugList) String() string { return strings.Join(*l, ",") }
func (l *slugList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var slugs slugList
	var fieldID string
	var dryRun bool
	var limit int
	flag.Var(&slugs, "slug", "technology slug to backfill (repeatable)")
	flag.StringVar(&fieldID, "field", "", "only technologies in this field id")
	flag.BoolVar(&dryRun, "dry-run", false, "list technologies with an empty roadmap without generating")
	flag.IntVar(&limit, "limit", 0, "limit number of technologies processed")
	flag.Parse()

	_ = godotenv.Load()
	log, err := logger.New("development")
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	application, err := app.New(ctx, log)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Shutdown(10 * time.Second)

	if len(slugs) == 0 {
		all, err := application.Repos.Technology.List(ctx, repos.TechnologyListFilter{FieldID: fieldID, Limit: 1000})
		if err != nil {
			fmt.Printf("list technologies: %v\n", err)
			os.Exit(1)
		}
		for _, s := range all {
			slugs = append(slugs, s.Slug)
		}
	}

	processed, generated := 0, 0
	for _, slug := range slugs {
		if limit > 0 && processed >= limit {
			break
		}
		t, err := application.Repos.Technology.GetBySlug(ctx, slug)
		if err != nil {
			fmt.Printf("skip %s: %v\n", slug, err)
			continue
		}
		if len(t.Roadmap) > 0 {
			continue
		}
		processed++
		if dryRun {
			fmt.Printf("[dry-run] %s has no roadmap\n", slug)
			continue
		}
		filled, err := application.Services.Technology.GetBySlug(ctx, slug)
		if err != nil {
			fmt.Printf("generate %s: %v\n", slug, err)
			continue
		}
		if len(filled.Roadmap) == 0 {
			fmt.Printf("generate %s: generation did not produce a roadmap\n", slug)
			continue
		}
		generated++
		fmt.Printf("generated %s (%d steps)\n", slug, len(filled.Roadmap))
	}
	fmt.Printf("done: %d without roadmap, %d generated\n", processed, generated)
}
