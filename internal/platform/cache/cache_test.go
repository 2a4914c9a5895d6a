package cache

import (
	"context"
	"testing"
	"time"
)

type listing struct {
	Slugs []string `json:"slugs"`
}

func TestMemoryRoundTripAndPrefixDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	if err := m.Set(ctx, "tech:list:a", listing{Slugs: []string{"go"}}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(ctx, "field:x", listing{Slugs: []string{"rust"}}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got listing
	ok, err := m.Get(ctx, "tech:list:a", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got.Slugs) != 1 || got.Slugs[0] != "go" {
		t.Fatalf("unexpected value %+v", got)
	}

	if err := m.DeletePrefix(ctx, "tech:list:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if ok, _ := m.Get(ctx, "tech:list:a", &got); ok {
		t.Fatalf("expected tech listing to be evicted")
	}
	if ok, _ := m.Get(ctx, "field:x", &got); !ok {
		t.Fatalf("unrelated key should survive prefix delete")
	}
}

func TestMemoryTryLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	release, ok, err := m.TryLock(ctx, "gen:golang", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := m.TryLock(ctx, "gen:golang", time.Minute); ok {
		t.Fatalf("second TryLock should fail while held")
	}
	release()
	if _, ok, _ := m.TryLock(ctx, "gen:golang", time.Minute); !ok {
		t.Fatalf("TryLock should succeed after release")
	}
}
