package user

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		done, total, want int
	}{
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{5, 3, 100},
		{1, 0, 0},
		{-1, 4, 0},
	}
	for _, tc := range cases {
		if got := Percent(tc.done, tc.total); got != tc.want {
			t.Fatalf("Percent(%d,%d): got=%d want=%d", tc.done, tc.total, got, tc.want)
		}
	}
	for total := 1; total <= 25; total++ {
		for done := 0; done <= total; done++ {
			got := Percent(done, total)
			if got < 0 || got > 100 {
				t.Fatalf("Percent(%d,%d)=%d outside [0,100]", done, total, got)
			}
		}
	}
}

func TestProgressStateMachine(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	techID := primitive.NewObjectID()
	u := &User{}

	p, created := u.EnsureProgress(techID, 2, now)
	if !created {
		t.Fatalf("expected a new progress entry")
	}
	if p.State() != StateNotStarted {
		t.Fatalf("state: got=%s", p.State())
	}

	if _, err := p.ApplyStep(StepUpdate{StepIndex: 0, Status: StepInProgress}, 2, now); err != nil {
		t.Fatalf("ApplyStep: %v", err)
	}
	if p.State() != StateInProgress || p.PercentComplete != 0 {
		t.Fatalf("after start: state=%s percent=%d", p.State(), p.PercentComplete)
	}

	became, err := p.ApplyStep(StepUpdate{StepIndex: 0, Status: StepCompleted, HoursSpent: 1.5}, 2, now)
	if err != nil || !became {
		t.Fatalf("ApplyStep complete: became=%v err=%v", became, err)
	}
	if p.PercentComplete != 50 {
		t.Fatalf("percent: got=%d want=50", p.PercentComplete)
	}

	if _, err := p.ApplyStep(StepUpdate{StepIndex: 1, Status: StepCompleted}, 2, now); err != nil {
		t.Fatalf("ApplyStep: %v", err)
	}
	if p.State() != StateCompleted || p.CompletedDate == nil || p.PercentComplete != 100 {
		t.Fatalf("expected completed entry, got state=%s percent=%d", p.State(), p.PercentComplete)
	}

	again, err := p.ApplyStep(StepUpdate{StepIndex: 1, Status: StepCompleted}, 2, now)
	if err != nil || again {
		t.Fatalf("re-completing a step should not count as a transition: %v %v", again, err)
	}

	if _, err := p.ApplyStep(StepUpdate{StepIndex: 1, Status: StepInProgress}, 2, now); err != nil {
		t.Fatalf("ApplyStep regression: %v", err)
	}
	if p.CompletedDate != nil || p.State() != StateInProgress {
		t.Fatalf("regression should clear completedDate, state=%s", p.State())
	}
	if p.HoursSpent != 1.5 {
		t.Fatalf("hours: got=%v", p.HoursSpent)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("steps should be upserted by index, got %d", len(p.Steps))
	}
}

func TestApplyStepRejectsInvalidInput(t *testing.T) {
	now := time.Now()
	p := &ProgressEntry{}
	if _, err := p.ApplyStep(StepUpdate{StepIndex: 0, Status: "done"}, 3, now); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := p.ApplyStep(StepUpdate{StepIndex: 3, Status: StepCompleted}, 3, now); !errors.Is(err, ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
	if _, err := p.ApplyStep(StepUpdate{StepIndex: 0, Status: StepCompleted, HoursSpent: -1}, 3, now); !errors.Is(err, ErrNegativeHours) {
		t.Fatalf("expected ErrNegativeHours, got %v", err)
	}
	if len(p.Steps) != 0 {
		t.Fatalf("rejected updates must not mutate the entry")
	}
}

func TestApplyStepMatchesByStepID(t *testing.T) {
	now := time.Now()
	stepID := primitive.NewObjectID()
	p := &ProgressEntry{}
	if _, err := p.ApplyStep(StepUpdate{StepIndex: 2, StepID: stepID, Status: StepInProgress}, 4, now); err != nil {
		t.Fatalf("ApplyStep: %v", err)
	}
	// the roadmap was reordered: same step id now sits at index 1
	if _, err := p.ApplyStep(StepUpdate{StepIndex: 1, StepID: stepID, Status: StepCompleted}, 4, now); err != nil {
		t.Fatalf("ApplyStep: %v", err)
	}
	if len(p.Steps) != 1 || p.Steps[0].StepIndex != 1 || p.Steps[0].Status != StepCompleted {
		t.Fatalf("unexpected steps %+v", p.Steps)
	}
}
