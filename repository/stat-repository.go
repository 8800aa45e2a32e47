package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

type StatType string

const (
	StatTypeTwoPoint   StatType = "two_point"
	StatTypeThreePoint StatType = "three_point"
	StatTypeFreeThrow  StatType = "free_throw"
	StatTypeSteal      StatType = "steal"
	StatTypeRebound    StatType = "rebound"
	StatTypeAssist     StatType = "assist"
	StatTypeBlock      StatType = "block"
	StatTypeTurnover   StatType = "turnover"
)

func (t StatType) Valid() bool {
	switch t {
	case StatTypeTwoPoint, StatTypeThreePoint, StatTypeFreeThrow,
		StatTypeSteal, StatTypeRebound, StatTypeAssist, StatTypeBlock, StatTypeTurnover:
		return true
	}
	return false
}

// PointValue is the fixed score contribution per event. The event value never
// multiplies it.
func (t StatType) PointValue() int {
	switch t {
	case StatTypeThreePoint:
		return 3
	case StatTypeTwoPoint:
		return 2
	case StatTypeFreeThrow:
		return 1
	}
	return 0
}

func (t StatType) IsScoring() bool {
	return t.PointValue() > 0
}

// StatEvent is one atomic recorded occurrence during a game. Events are never
// updated in place; corrections are delete+add.
type StatEvent struct {
	Id            int       `gorm:"primaryKey"`
	GameId        int       `gorm:"not null;index"`
	RosterEntryId int       `gorm:"not null;index"`
	StatType      StatType  `gorm:"not null"`
	Value         int       `gorm:"not null;default:1"`
	Quarter       *int      `gorm:"null"`
	TimeMinute    *int      `gorm:"null"`
	CreatedBy     int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`

	RosterEntry *RosterEntry `gorm:"foreignKey:RosterEntryId"`
}

type StatRepository struct {
	DB *gorm.DB
}

func NewStatRepository(db *gorm.DB) *StatRepository {
	return &StatRepository{DB: db}
}

func (r *StatRepository) GetStatById(statId int) (*StatEvent, error) {
	var stat StatEvent
	result := r.DB.Preload("RosterEntry").Preload("RosterEntry.User").Preload("RosterEntry.ManualPlayer").First(&stat, statId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "stat event with id %d not found", statId)
		}
		return nil, fmt.Errorf("failed to fetch stat event %d: %w", statId, result.Error)
	}
	return &stat, nil
}

func (r *StatRepository) GetStatsForGame(gameId int) ([]*StatEvent, error) {
	stats := []*StatEvent{}
	err := r.DB.Where("game_id = ?", gameId).Order("id ASC").Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stat events for game %d: %w", gameId, err)
	}
	return stats, nil
}

func (r *StatRepository) GetStatsForEntry(entryId int) ([]*StatEvent, error) {
	stats := []*StatEvent{}
	err := r.DB.Where("roster_entry_id = ?", entryId).Order("id ASC").Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stat events for roster entry %d: %w", entryId, err)
	}
	return stats, nil
}
