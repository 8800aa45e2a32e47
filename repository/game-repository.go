package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

type GameStatus string

const (
	GameStatusUpcoming  GameStatus = "upcoming"
	GameStatusLive      GameStatus = "live"
	GameStatusCompleted GameStatus = "completed"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusUpcoming, GameStatusLive, GameStatusCompleted:
		return true
	}
	return false
}

// Game owns its roster entries and, transitively, their stat events and the
// activity log. Scores are derived from stat events via additive deltas.
type Game struct {
	Id           int        `gorm:"primaryKey"`
	TeamName     string     `gorm:"not null"`
	OpponentName string     `gorm:"not null"`
	IsHome       bool       `gorm:"not null"`
	ScheduledAt  time.Time  `gorm:"not null"`
	HomeScore    int        `gorm:"not null;default:0"`
	AwayScore    int        `gorm:"not null;default:0"`
	Status       GameStatus `gorm:"not null;default:'upcoming'"`
	StatsLocked  bool       `gorm:"not null;default:false"`
	SharedToFeed bool       `gorm:"not null;default:false"`
	CreatedBy    int        `gorm:"not null"`
	CreatedAt    time.Time  `gorm:"not null"`

	RosterEntries []*RosterEntry      `gorm:"foreignKey:GameId;constraint:OnDelete:CASCADE"`
	Activities    []*ActivityLogEntry `gorm:"foreignKey:GameId;constraint:OnDelete:CASCADE"`
}

// TeamScore returns the side of the scoreboard that stat events for this
// game's own roster contribute to.
func (g *Game) TeamScore() int {
	if g.IsHome {
		return g.HomeScore
	}
	return g.AwayScore
}

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) GetGameById(gameId int, preloads ...string) (*Game, error) {
	var game Game
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&game, gameId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "game with id %d not found", gameId)
		}
		return nil, fmt.Errorf("failed to fetch game %d: %w", gameId, result.Error)
	}
	return &game, nil
}

func (r *GameRepository) Save(game *Game) (*Game, error) {
	result := r.DB.Save(game)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save game: %w", result.Error)
	}
	return game, nil
}

func (r *GameRepository) Delete(gameId int) error {
	result := r.DB.Delete(&Game{}, gameId)
	if result.Error != nil {
		return fmt.Errorf("failed to delete game %d: %w", gameId, result.Error)
	}
	if result.RowsAffected == 0 {
		return app_error.New(app_error.KindNotFound, "game with id %d not found", gameId)
	}
	return nil
}

func (r *GameRepository) FindAll(status *GameStatus) ([]*Game, error) {
	games := []*Game{}
	query := r.DB.Order("scheduled_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	return games, nil
}

func (r *GameRepository) GetGamesByIds(gameIds []int) ([]*Game, error) {
	games := []*Game{}
	if len(gameIds) == 0 {
		return games, nil
	}
	err := r.DB.Where("id IN ?", gameIds).Order("scheduled_at DESC").Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}
	return games, nil
}
