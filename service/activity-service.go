package service

import (
	"github.com/codyde/girlsgotgame-sub002/repository"

	"gorm.io/gorm"
)

type ActivityService struct {
	gameRepository     *repository.GameRepository
	activityRepository *repository.ActivityRepository
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{
		gameRepository:     repository.NewGameRepository(db),
		activityRepository: repository.NewActivityRepository(db),
	}
}

// ListActivities returns the append-only log for a game in insertion order.
func (s *ActivityService) ListActivities(gameId int) ([]*repository.ActivityLogEntry, error) {
	if _, err := s.gameRepository.GetGameById(gameId); err != nil {
		return nil, err
	}
	return s.activityRepository.GetActivitiesForGame(gameId)
}
