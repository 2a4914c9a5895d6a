package analytics

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionStart        = "start"
	ActionCompleteStep = "complete_step"
	ActionFavorite     = "favorite"
	ActionUnfavorite   = "unfavorite"
	ActionView         = "view"
)

var Actions = []string{ActionStart, ActionCompleteStep, ActionFavorite, ActionUnfavorite, ActionView}

func IsAction(s string) bool {
	for _, a := range Actions {
		if a == s {
			return true
		}
	}
	return false
}

// Event is one row of the append-only analytics log. Ids of Mongo documents are stored as hex strings.
type Event struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string         `gorm:"column:user_id;not null;index:idx_analytics_user_ts,priority:1" json:"userId"`
	TechnologyID string         `gorm:"column:technology_id;index" json:"technologyId,omitempty"`
	ActionType   string         `gorm:"column:action_type;not null;index" json:"actionType"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	Timestamp    time.Time      `gorm:"column:timestamp;not null;index:idx_analytics_user_ts,priority:2" json:"timestamp"`
}

func (Event) TableName() string { return "analytics_event" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
