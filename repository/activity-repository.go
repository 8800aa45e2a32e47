package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityStatAdded      ActivityType = "stat_added"
	ActivityStatRemoved    ActivityType = "stat_removed"
	ActivityPlayerAdded    ActivityType = "player_added"
	ActivityPlayerRemoved  ActivityType = "player_removed"
	ActivityPlayerMigrated ActivityType = "player_migrated"
	ActivityScoreUpdated   ActivityType = "score_updated"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityStatAdded, ActivityStatRemoved, ActivityPlayerAdded,
		ActivityPlayerRemoved, ActivityPlayerMigrated, ActivityScoreUpdated:
		return true
	}
	return false
}

// ActivityMetadata is the closed set of structured fields an activity entry can
// carry. Which fields are required depends on the activity type; see Validate.
type ActivityMetadata struct {
	StatType       StatType   `json:"stat_type,omitempty"`
	StatValue      int        `json:"stat_value,omitempty"`
	Delta          int        `json:"delta,omitempty"`
	HomeScore      *int       `json:"home_score,omitempty"`
	AwayScore      *int       `json:"away_score,omitempty"`
	PlayerName     string     `json:"player_name,omitempty"`
	PlayerKind     PlayerKind `json:"player_kind,omitempty"`
	RosterEntryId  int        `json:"roster_entry_id,omitempty"`
	ManualPlayerId int        `json:"manual_player_id,omitempty"`
	TargetUserId   int        `json:"target_user_id,omitempty"`
}

func (m ActivityMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *ActivityMetadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = ActivityMetadata{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into ActivityMetadata", value)
}

// ActivityLogEntry is append-only: rows are never mutated or deleted except by
// the owning game's cascade. Ordering is creation order.
type ActivityLogEntry struct {
	Id          int              `gorm:"primaryKey"`
	GameId      int              `gorm:"not null;index"`
	Type        ActivityType     `gorm:"not null"`
	Description string           `gorm:"not null"`
	Metadata    ActivityMetadata `gorm:"type:jsonb"`
	CreatedBy   int              `gorm:"not null"`
	CreatedAt   time.Time        `gorm:"not null"`
}

func (e *ActivityLogEntry) Validate() error {
	if !e.Type.Valid() {
		return app_error.New(app_error.KindValidation, "unknown activity type %q", e.Type)
	}
	if e.Description == "" {
		return app_error.New(app_error.KindValidation, "activity description is required")
	}
	switch e.Type {
	case ActivityStatAdded, ActivityStatRemoved:
		if !e.Metadata.StatType.Valid() {
			return app_error.New(app_error.KindValidation, "%s activity requires a valid stat type", e.Type)
		}
		if e.Metadata.RosterEntryId == 0 {
			return app_error.New(app_error.KindValidation, "%s activity requires a roster entry id", e.Type)
		}
	case ActivityPlayerAdded, ActivityPlayerRemoved:
		if e.Metadata.PlayerKind != PlayerKindRegistered && e.Metadata.PlayerKind != PlayerKindManual {
			return app_error.New(app_error.KindValidation, "%s activity requires a player kind", e.Type)
		}
	case ActivityPlayerMigrated:
		if e.Metadata.ManualPlayerId == 0 || e.Metadata.TargetUserId == 0 {
			return app_error.New(app_error.KindValidation, "player_migrated activity requires manual player and target user ids")
		}
	case ActivityScoreUpdated:
		if e.Metadata.HomeScore == nil || e.Metadata.AwayScore == nil {
			return app_error.New(app_error.KindValidation, "score_updated activity requires both scores")
		}
	}
	return nil
}

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) SaveActivity(activity *ActivityLogEntry) error {
	if err := activity.Validate(); err != nil {
		return err
	}
	return r.DB.Create(activity).Error
}

func (r *ActivityRepository) GetActivitiesForGame(gameId int) ([]*ActivityLogEntry, error) {
	activities := []*ActivityLogEntry{}
	err := r.DB.Where("game_id = ?", gameId).Order("id ASC").Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities for game %d: %w", gameId, err)
	}
	return activities, nil
}
