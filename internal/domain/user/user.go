package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ExperienceLevels = []string{"beginner", "intermediate", "advanced"}

type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name            string               `bson:"name" json:"name"`
	Username        string               `bson:"username,omitempty" json:"username,omitempty"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"`
	Role            string               `bson:"role" json:"role"`
	Interests       []string             `bson:"interests" json:"interests"`
	ExperienceLevel string               `bson:"experienceLevel" json:"experienceLevel"`
	Avatar          string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio             string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Favourites      []primitive.ObjectID `bson:"favourites" json:"favourites"`
	Progress        []ProgressEntry      `bson:"progress" json:"progress"`
	Streak          int                  `bson:"streak" json:"streak"`
	LastActiveAt    *time.Time           `bson:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`
	TotalHoursSpent float64              `bson:"totalHoursSpent" json:"totalHoursSpent"`
	Level           int                  `bson:"level" json:"level"`
	// Version is bumped by every progress save; SaveProgress only applies when it still matches.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) HasFavourite(techID primitive.ObjectID) bool {
	for _, id := range u.Favourites {
		if id == techID {
			return true
		}
	}
	return false
}

func IsExperienceLevel(s string) bool {
	for _, l := range ExperienceLevels {
		if l == s {
			return true
		}
	}
	return false
}

// TouchActivity updates the daily streak and lastActiveAt. Days are UTC calendar days.
func (u *User) TouchActivity(now time.Time) {
	now = now.UTC()
	today := dayOf(now)
	switch {
	case u.LastActiveAt == nil:
		u.Streak = 1
	default:
		last := dayOf(u.LastActiveAt.UTC())
		switch {
		case last.Equal(today):
			if u.Streak < 1 {
				u.Streak = 1
			}
		case last.AddDate(0, 0, 1).Equal(today):
			u.Streak++
		default:
			u.Streak = 1
		}
	}
	u.LastActiveAt = &now
}

// RecomputeStats derives totalHoursSpent and level from the progress entries.
func (u *User) RecomputeStats() {
	var hours float64
	completed := 0
	for _, p := range u.Progress {
		hours += p.HoursSpent
		if p.CompletedDate != nil {
			completed++
		}
	}
	u.TotalHoursSpent = hours
	u.Level = LevelFor(completed)
}

// LevelFor is one level per three completed technologies, starting at 1.
func LevelFor(completedTechnologies int) int {
	if completedTechnologies < 0 {
		completedTechnologies = 0
	}
	return completedTechnologies/3 + 1
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
