package services

import (
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/domain/analytics"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/modules/roadmap/roadmaptest"
)

type progressFixture struct {
	svc   *progressService
	users *testutil.MemUserRepo
	techs *testutil.MemTechnologyRepo
	rec   *recordingAnalytics
	u     *user.User
	tech  *technology.Technology
}

func newProgressFixture(t *testing.T, steps int) *progressFixture {
	t.Helper()
	f := &progressFixture{
		users: testutil.NewMemUserRepo(),
		techs: testutil.NewMemTechnologyRepo(),
		rec:   &recordingAnalytics{},
	}
	f.svc = NewProgressService(testutil.Logger(t), f.users, f.techs, f.rec).(*progressService)
	f.u = seedUser(t, f.users)
	f.tech = f.techs.Seed(&technology.Technology{Name: "Go", Roadmap: roadmaptest.Steps(steps)})
	return f
}

func TestUpdateBySlugTracksPercentAndCompletion(t *testing.T) {
	f := newProgressFixture(t, 3)
	ctx := authedCtx(f.u.ID, user.RoleUser)

	cases := []struct {
		index   int
		status  string
		percent int
		state   string
	}{
		{0, "in_progress", 0, user.StateInProgress},
		{0, "completed", 33, user.StateInProgress},
		{1, "completed", 67, user.StateInProgress},
		{2, "completed", 100, user.StateCompleted},
		{2, "in_progress", 67, user.StateInProgress},
	}
	for _, tc := range cases {
		view, err := f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: tc.index, Status: tc.status, HoursSpent: 1})
		if err != nil {
			t.Fatalf("UpdateBySlug(%d,%s): %v", tc.index, tc.status, err)
		}
		if view.PercentComplete != tc.percent || view.State != tc.state {
			t.Fatalf("after step %d %s: want %d%%/%s got %d%%/%s", tc.index, tc.status, tc.percent, tc.state, view.PercentComplete, view.State)
		}
	}

	stored := f.users.Stored(f.u.ID)
	if len(stored.Progress) != 1 {
		t.Fatalf("progress entries: want=1 got=%d", len(stored.Progress))
	}
	p := stored.Progress[0]
	if p.CompletedDate != nil {
		t.Fatalf("completedDate must be cleared after regression")
	}
	if p.HoursSpent != 5 || stored.TotalHoursSpent != 5 {
		t.Fatalf("hours: entry=%v total=%v", p.HoursSpent, stored.TotalHoursSpent)
	}
	if stored.Streak != 1 || stored.LastActiveAt == nil {
		t.Fatalf("streak not touched: %d", stored.Streak)
	}
	if p.Steps[0].StepID != f.tech.Roadmap[0].ID {
		t.Fatalf("step id not recorded")
	}

	var starts, completes int
	for _, a := range f.rec.actions() {
		switch a {
		case analytics.ActionStart:
			starts++
		case analytics.ActionCompleteStep:
			completes++
		}
	}
	if starts != 1 || completes != 3 {
		t.Fatalf("analytics: starts=%d completes=%d", starts, completes)
	}
}

func TestUpdateBySlugValidationWritesNothing(t *testing.T) {
	f := newProgressFixture(t, 2)
	ctx := authedCtx(f.u.ID, user.RoleUser)
	before := f.users.Writes

	_, err := f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 5, Status: "completed"})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_step")
	_, err = f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 0, Status: "done"})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_status")
	_, err = f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 0, Status: "completed", HoursSpent: -1})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_hours")

	if f.users.Writes != before {
		t.Fatalf("validation failures must not write")
	}
	if len(f.users.Stored(f.u.ID).Progress) != 0 {
		t.Fatalf("no progress entry expected")
	}
}

func TestProgressRetriesVersionConflicts(t *testing.T) {
	f := newProgressFixture(t, 2)
	f.users.ConflictsLeft = maxProgressSaveAttempts - 1

	view, err := f.svc.UpdateBySlug(authedCtx(f.u.ID, user.RoleUser), "go", StepUpdateInput{StepIndex: 0, Status: "completed"})
	if err != nil {
		t.Fatalf("UpdateBySlug: %v", err)
	}
	if view.PercentComplete != 50 {
		t.Fatalf("percent: want=50 got=%d", view.PercentComplete)
	}
}

func TestProgressGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newProgressFixture(t, 2)
	f.users.ConflictsLeft = maxProgressSaveAttempts

	_, err := f.svc.UpdateBySlug(authedCtx(f.u.ID, user.RoleUser), "go", StepUpdateInput{StepIndex: 0, Status: "completed"})
	wantAPIError(t, err, http.StatusConflict, "concurrent_update")
	if n := len(f.rec.actions()); n != 0 {
		t.Fatalf("no analytics expected after failed save, got %d", n)
	}
}

func TestUpdateStepByIDDefaultsToCompleted(t *testing.T) {
	f := newProgressFixture(t, 4)
	ctx := authedCtx(f.u.ID, user.RoleUser)

	view, err := f.svc.UpdateStepByID(ctx, f.tech.ID, f.tech.Roadmap[3].ID, "")
	if err != nil {
		t.Fatalf("UpdateStepByID: %v", err)
	}
	if view.PercentComplete != 25 || view.Steps[0].StepIndex != 3 {
		t.Fatalf("unexpected view: %+v", view.ProgressEntry)
	}

	_, err = f.svc.UpdateStepByID(ctx, f.tech.ID, primitive.NewObjectID(), "")
	wantAPIError(t, err, http.StatusNotFound, "step_not_found")
}

func TestStartAndGet(t *testing.T) {
	f := newProgressFixture(t, 2)
	ctx := authedCtx(f.u.ID, user.RoleUser)

	empty, err := f.svc.Get(ctx, f.tech.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if empty.State != user.StateNotStarted || empty.TotalSteps != 2 {
		t.Fatalf("synthesized view: %+v", empty)
	}
	if f.users.Writes != 1 {
		t.Fatalf("Get must not write")
	}

	if _, err := f.svc.Start(ctx, f.tech.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.tech.ID); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	got, err := f.svc.Get(ctx, f.tech.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.StartDate.IsZero() {
		t.Fatalf("expected stored entry")
	}
	if acts := f.rec.actions(); len(acts) != 1 || acts[0] != analytics.ActionStart {
		t.Fatalf("expected a single start event, got %v", acts)
	}
}

func TestStreakAdvancesAcrossDays(t *testing.T) {
	f := newProgressFixture(t, 3)
	ctx := authedCtx(f.u.ID, user.RoleUser)
	day := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return day }

	if _, err := f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 0, Status: "completed"}); err != nil {
		t.Fatalf("day 1: %v", err)
	}
	day = day.Add(4 * time.Hour)
	if _, err := f.svc.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 1, Status: "completed"}); err != nil {
		t.Fatalf("day 2: %v", err)
	}
	if s := f.users.Stored(f.u.ID).Streak; s != 2 {
		t.Fatalf("streak: want=2 got=%d", s)
	}
}

func TestProgressOnEmptyRoadmap(t *testing.T) {
	f := newProgressFixture(t, 0)
	_, err := f.svc.UpdateBySlug(authedCtx(f.u.ID, user.RoleUser), "go", StepUpdateInput{StepIndex: 0, Status: "completed"})
	wantAPIError(t, err, http.StatusConflict, "roadmap_empty")
}
