package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"

	"gorm.io/gorm"
)

// ManualPlayer is an unregistered placeholder entered ad hoc for roster and
// stat tracking. Once linked to a registered account it is "resolved" but stays
// a distinct row until explicitly deleted after a verified migration.
type ManualPlayer struct {
	Id           int       `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	JerseyNumber *int      `gorm:"null"`
	ParentUserId *int      `gorm:"null;index"`
	LinkedUserId *int      `gorm:"null;index"`
	CreatedBy    int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`

	Parent     *User `gorm:"foreignKey:ParentUserId"`
	LinkedUser *User `gorm:"foreignKey:LinkedUserId"`
}

func (m *ManualPlayer) IsLinked() bool {
	return m.LinkedUserId != nil
}

type ManualPlayerRepository struct {
	DB *gorm.DB
}

func NewManualPlayerRepository(db *gorm.DB) *ManualPlayerRepository {
	return &ManualPlayerRepository{DB: db}
}

func (r *ManualPlayerRepository) GetManualPlayerById(manualId int) (*ManualPlayer, error) {
	var player ManualPlayer
	result := r.DB.First(&player, manualId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.KindNotFound, "manual player with id %d not found", manualId)
		}
		return nil, fmt.Errorf("failed to fetch manual player %d: %w", manualId, result.Error)
	}
	return &player, nil
}

func (r *ManualPlayerRepository) SaveManualPlayer(player *ManualPlayer) (*ManualPlayer, error) {
	result := r.DB.Save(player)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save manual player: %w", result.Error)
	}
	return player, nil
}

func (r *ManualPlayerRepository) DeleteManualPlayer(manualId int) error {
	result := r.DB.Delete(&ManualPlayer{}, manualId)
	if result.Error != nil {
		return fmt.Errorf("failed to delete manual player %d: %w", manualId, result.Error)
	}
	return nil
}

func (r *ManualPlayerRepository) FindAll() ([]*ManualPlayer, error) {
	players := []*ManualPlayer{}
	err := r.DB.Preload("LinkedUser").Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manual players: %w", err)
	}
	return players, nil
}

// FindByLinkedUser returns the manual players resolved onto the given account.
func (r *ManualPlayerRepository) FindByLinkedUser(userId int) ([]*ManualPlayer, error) {
	players := []*ManualPlayer{}
	err := r.DB.Where("linked_user_id = ?", userId).Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manual players linked to user %d: %w", userId, err)
	}
	return players, nil
}
