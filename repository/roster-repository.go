package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

// RosterEntry associates a participant identity with a game. Exactly one of
// UserId/ManualPlayerId is set; use PlayerRef() instead of touching the raw
// columns. The composite unique indexes back the one-entry-per-game-per-player
// invariant at the database; the service-level scan on top of them handles the
// linked-manual case the columns alone cannot express.
type RosterEntry struct {
	Id             int       `gorm:"primaryKey"`
	GameId         int       `gorm:"not null;index;uniqueIndex:idx_roster_game_user;uniqueIndex:idx_roster_game_manual"`
	UserId         *int      `gorm:"null;index;uniqueIndex:idx_roster_game_user"`
	ManualPlayerId *int      `gorm:"null;index;uniqueIndex:idx_roster_game_manual"`
	JerseyNumber   *int      `gorm:"null"`
	IsStarter      bool      `gorm:"not null;default:false"`
	MinutesPlayed  int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`

	Game         *Game         `gorm:"foreignKey:GameId"`
	User         *User         `gorm:"foreignKey:UserId"`
	ManualPlayer *ManualPlayer `gorm:"foreignKey:ManualPlayerId"`

	StatEvents []*StatEvent `gorm:"foreignKey:RosterEntryId;constraint:OnDelete:CASCADE"`
}

func (e *RosterEntry) PlayerRef() PlayerRef {
	if e.UserId != nil {
		return RegisteredRef(*e.UserId)
	}
	if e.ManualPlayerId != nil {
		return ManualRef(*e.ManualPlayerId)
	}
	return PlayerRef{}
}

// PlayerName resolves the display name of whoever the entry refers to,
// assuming the User/ManualPlayer association is preloaded.
func (e *RosterEntry) PlayerName() string {
	if e.User != nil {
		return e.User.DisplayName
	}
	if e.ManualPlayer != nil {
		return e.ManualPlayer.Name
	}
	return fmt.Sprintf("entry %d", e.Id)
}

type RosterRepository struct {
	DB *gorm.DB
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{DB: db}
}

func (r *RosterRepository) GetEntryById(entryId int) (*RosterEntry, error) {
	var entry RosterEntry
	result := r.DB.Preload("User").Preload("ManualPlayer").First(&entry, entryId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "roster entry with id %d not found", entryId)
		}
		return nil, fmt.Errorf("failed to fetch roster entry %d: %w", entryId, result.Error)
	}
	return &entry, nil
}

func (r *RosterRepository) GetEntriesForGame(gameId int) ([]*RosterEntry, error) {
	entries := []*RosterEntry{}
	err := r.DB.Preload("User").Preload("ManualPlayer").
		Where("game_id = ?", gameId).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster for game %d: %w", gameId, err)
	}
	return entries, nil
}

func (r *RosterRepository) GetEntriesForManualPlayer(manualId int) ([]*RosterEntry, error) {
	entries := []*RosterEntry{}
	err := r.DB.Where("manual_player_id = ?", manualId).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster entries for manual player %d: %w", manualId, err)
	}
	return entries, nil
}

func (r *RosterRepository) GetEntriesForUser(userId int) ([]*RosterEntry, error) {
	entries := []*RosterEntry{}
	err := r.DB.Where("user_id = ?", userId).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster entries for user %d: %w", userId, err)
	}
	return entries, nil
}

func (r *RosterRepository) CountEntriesForUser(userId int) (int64, error) {
	var count int64
	err := r.DB.Model(&RosterEntry{}).Where("user_id = ?", userId).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count roster entries for user %d: %w", userId, err)
	}
	return count, nil
}

func (r *RosterRepository) CountEntriesForManualPlayer(manualId int) (int64, error) {
	var count int64
	err := r.DB.Model(&RosterEntry{}).Where("manual_player_id = ?", manualId).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count roster entries for manual player %d: %w", manualId, err)
	}
	return count, nil
}

func (r *RosterRepository) Save(entry *RosterEntry) (*RosterEntry, error) {
	result := r.DB.Save(entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save roster entry: %w", result.Error)
	}
	return entry, nil
}

func (r *RosterRepository) Delete(entryId int) error {
	result := r.DB.Delete(&RosterEntry{}, entryId)
	if result.Error != nil {
		return fmt.Errorf("failed to delete roster entry %d: %w", entryId, result.Error)
	}
	return nil
}
