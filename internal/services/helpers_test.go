package services

import (
	"context"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
)

type trackedEvent struct {
	userID primitive.ObjectID
	techID primitive.ObjectID
	action string
	meta   map[string]any
}

type recordingAnalytics struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (r *recordingAnalytics) Track(ctx context.Context, userID, techID primitive.ObjectID, action string, metadata map[string]any) {
	if userID.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, trackedEvent{userID: userID, techID: techID, action: action, meta: metadata})
}

func (r *recordingAnalytics) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]*analytics.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*analytics.Event{}
	for _, e := range r.events {
		if e.userID == userID {
			out = append(out, &analytics.Event{UserID: e.userID.Hex(), TechnologyID: e.techID.Hex(), ActionType: e.action})
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *recordingAnalytics) CountsForTechnology(ctx context.Context, techID primitive.ObjectID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, e := range r.events {
		if e.techID == techID {
			out[e.action]++
		}
	}
	return out, nil
}

func (r *recordingAnalytics) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.action)
	}
	return out
}

func authedCtx(id primitive.ObjectID, role string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id, Role: role})
}

func seedUser(t *testing.T, repo *testutil.MemUserRepo) *user.User {
	t.Helper()
	u := &user.User{Name: "Ada Lovelace", Email: "ada@example.com", Role: user.RoleUser, Level: 1}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d %s, got nil", status, code)
	}
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error %d %s, got %v", status, code, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("api error: want=%d/%s got=%d/%s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}
