package user

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StepStatus string

const (
	StepNotStarted StepStatus = "not_started"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepNotStarted, StepInProgress, StepCompleted:
		return true
	}
	return false
}

// Progress entry states.
const (
	StateNotStarted = "not_started"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
)

var (
	ErrInvalidStatus    = errors.New("invalid step status")
	ErrStepOutOfRange   = errors.New("step index out of range")
	ErrNegativeHours    = errors.New("hours spent cannot be negative")
	ErrProgressNotFound = errors.New("progress entry not found")
)

type StepProgress struct {
	StepID      primitive.ObjectID `bson:"stepId,omitempty" json:"stepId,omitempty"`
	StepIndex   int                `bson:"stepIndex" json:"stepIndex"`
	Status      StepStatus         `bson:"status" json:"status"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	StartedAt   *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// ProgressEntry is the per-technology record embedded in a user. Steps are keyed by roadmap step id,
// with stepIndex kept alongside for index-based clients.
type ProgressEntry struct {
	Technology      primitive.ObjectID `bson:"technology" json:"technology"`
	Steps           []StepProgress     `bson:"steps" json:"steps"`
	TotalSteps      int                `bson:"totalSteps" json:"totalSteps"`
	PercentComplete int                `bson:"percentComplete" json:"percentComplete"`
	StartDate       time.Time          `bson:"startDate" json:"startDate"`
	LastAccessed    time.Time          `bson:"lastAccessed" json:"lastAccessed"`
	CompletedDate   *time.Time         `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	HoursSpent      float64            `bson:"hoursSpent" json:"hoursSpent"`
}

// StepUpdate is one status change for a step addressed by index (and id when known).
type StepUpdate struct {
	StepIndex  int
	StepID     primitive.ObjectID
	Status     StepStatus
	Notes      *string
	HoursSpent float64
}

// Percent is round(completed/total*100) clamped to [0,100]; zero total yields 0.
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (u *User) FindProgress(techID primitive.ObjectID) *ProgressEntry {
	for i := range u.Progress {
		if u.Progress[i].Technology == techID {
			return &u.Progress[i]
		}
	}
	return nil
}

// EnsureProgress returns the entry for techID, appending a fresh one when absent.
func (u *User) EnsureProgress(techID primitive.ObjectID, totalSteps int, now time.Time) (*ProgressEntry, bool) {
	if p := u.FindProgress(techID); p != nil {
		return p, false
	}
	u.Progress = append(u.Progress, ProgressEntry{
		Technology:   techID,
		Steps:        []StepProgress{},
		TotalSteps:   totalSteps,
		StartDate:    now,
		LastAccessed: now,
	})
	return &u.Progress[len(u.Progress)-1], true
}

// ApplyStep validates and applies upd. It reports whether the step moved into completed.
func (p *ProgressEntry) ApplyStep(upd StepUpdate, totalSteps int, now time.Time) (bool, error) {
	if !upd.Status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, upd.Status)
	}
	if upd.StepIndex < 0 || (totalSteps > 0 && upd.StepIndex >= totalSteps) {
		return false, fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, upd.StepIndex, totalSteps)
	}
	if upd.HoursSpent < 0 {
		return false, ErrNegativeHours
	}

	step := p.findStep(upd.StepIndex, upd.StepID)
	if step == nil {
		p.Steps = append(p.Steps, StepProgress{StepIndex: upd.StepIndex, StepID: upd.StepID, Status: StepNotStarted})
		step = &p.Steps[len(p.Steps)-1]
	}
	if step.StepID.IsZero() {
		step.StepID = upd.StepID
	}
	step.StepIndex = upd.StepIndex

	prev := step.Status
	step.Status = upd.Status
	if upd.Notes != nil {
		step.Notes = *upd.Notes
	}
	switch upd.Status {
	case StepInProgress:
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		step.CompletedAt = nil
	case StepCompleted:
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		if prev != StepCompleted {
			step.CompletedAt = &now
		}
	case StepNotStarted:
		step.StartedAt = nil
		step.CompletedAt = nil
	}

	p.HoursSpent += upd.HoursSpent
	p.TotalSteps = totalSteps
	p.LastAccessed = now
	p.Recompute(now)
	return prev != StepCompleted && upd.Status == StepCompleted, nil
}

func (p *ProgressEntry) findStep(index int, id primitive.ObjectID) *StepProgress {
	if !id.IsZero() {
		for i := range p.Steps {
			if p.Steps[i].StepID == id {
				return &p.Steps[i]
			}
		}
	}
	for i := range p.Steps {
		if p.Steps[i].StepIndex == index {
			return &p.Steps[i]
		}
	}
	return nil
}

func (p *ProgressEntry) CompletedSteps() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepCompleted {
			n++
		}
	}
	return n
}

// Recompute refreshes percentComplete and completedDate. completedDate is cleared on regression.
func (p *ProgressEntry) Recompute(now time.Time) {
	done := p.CompletedSteps()
	p.PercentComplete = Percent(done, p.TotalSteps)
	if p.TotalSteps > 0 && done >= p.TotalSteps {
		if p.CompletedDate == nil {
			p.CompletedDate = &now
		}
		return
	}
	p.CompletedDate = nil
}

func (p *ProgressEntry) State() string {
	switch {
	case p == nil:
		return StateNotStarted
	case p.CompletedDate != nil:
		return StateCompleted
	}
	for _, s := range p.Steps {
		if s.Status != StepNotStarted {
			return StateInProgress
		}
	}
	return StateNotStarted
}
