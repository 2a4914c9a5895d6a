package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/neocube/neocube-backend/internal/data/repos/testutil"
	"github.com/neocube/neocube-backend/internal/domain/technology"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/modules/roadmap/roadmaptest"
)

func newUserFixture(t *testing.T) (UserService, *testutil.MemUserRepo, *testutil.MemTechnologyRepo, *recordingAnalytics) {
	t.Helper()
	log := testutil.Logger(t)
	avatars, err := NewAvatarService(log, nil)
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}
	users := testutil.NewMemUserRepo()
	techs := testutil.NewMemTechnologyRepo()
	rec := &recordingAnalytics{}
	return NewUserService(log, users, techs, avatars, rec), users, techs, rec
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	u := seedUser(t, users)
	ctx := authedCtx(u.ID, user.RoleUser)

	interests := []string{"go", " Go ", "rust", ""}
	got, err := svc.UpdateProfile(ctx, ProfileUpdateInput{
		Bio:             strPtr("  Compilers and coffee  "),
		ExperienceLevel: strPtr("Advanced"),
		Interests:       &interests,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Bio != "Compilers and coffee" || got.ExperienceLevel != "advanced" {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if len(got.Interests) != 2 {
		t.Fatalf("interests should be trimmed and deduplicated: %v", got.Interests)
	}

	_, err = svc.UpdateProfile(ctx, ProfileUpdateInput{ExperienceLevel: strPtr("wizard")})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_experience_level")
	_, err = svc.UpdateProfile(ctx, ProfileUpdateInput{Avatar: strPtr("javascript:alert(1)")})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_avatar")
	_, err = svc.UpdateProfile(ctx, ProfileUpdateInput{Name: strPtr("   ")})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_name")
}

func TestClearingAvatarRegeneratesInitials(t *testing.T) {
	svc, users, _, _ := newUserFixture(t)
	u := seedUser(t, users)
	got, err := svc.UpdateProfile(authedCtx(u.ID, user.RoleUser), ProfileUpdateInput{Avatar: strPtr("")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Avatar == "" {
		t.Fatalf("expected initials avatar")
	}
}

func TestDashboard(t *testing.T) {
	svc, users, techs, rec := newUserFixture(t)
	u := seedUser(t, users)
	ctx := authedCtx(u.ID, user.RoleUser)

	done := techs.Seed(&technology.Technology{Name: "Go", Roadmap: roadmaptest.Steps(1)})
	doing := techs.Seed(&technology.Technology{Name: "Rust", Roadmap: roadmaptest.Steps(2)})
	progress := NewProgressService(testutil.Logger(t), users, techs, rec)
	if _, err := progress.UpdateBySlug(ctx, "go", StepUpdateInput{StepIndex: 0, Status: "completed", HoursSpent: 2}); err != nil {
		t.Fatalf("complete go: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := progress.UpdateBySlug(ctx, "rust", StepUpdateInput{StepIndex: 0, Status: "completed", HoursSpent: 1.5}); err != nil {
		t.Fatalf("progress rust: %v", err)
	}
	if _, err := users.AddFavourite(context.Background(), u.ID, done.ID); err != nil {
		t.Fatalf("AddFavourite: %v", err)
	}

	d, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Counts.Completed != 1 || d.Counts.InProgress != 1 || d.Counts.Favourites != 1 {
		t.Fatalf("counts: %+v", d.Counts)
	}
	if d.Stats.TotalHoursSpent != 3.5 || d.Stats.Level != 1 || d.Stats.Streak != 1 {
		t.Fatalf("stats: %+v", d.Stats)
	}
	if len(d.RecentProgress) != 2 || d.RecentProgress[0].Technology.ID != doing.ID {
		t.Fatalf("recent progress should be newest first: %+v", d.RecentProgress)
	}
	if len(d.RecentActivity) == 0 {
		t.Fatalf("expected recent activity")
	}
}
