package service

import (
	"strings"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"gorm.io/gorm"
)

// FinalScoreNotifier announces completed games to an external channel.
// Best-effort: failures are logged, never surfaced.
type FinalScoreNotifier interface {
	AnnounceFinalScore(game *repository.Game) error
}

type GameService struct {
	db             *gorm.DB
	gameRepository *repository.GameRepository
	broadcaster    Broadcaster
	notifier       FinalScoreNotifier
}

func NewGameService(db *gorm.DB, broadcaster Broadcaster, notifier FinalScoreNotifier) *GameService {
	return &GameService{
		db:             db,
		gameRepository: repository.NewGameRepository(db),
		broadcaster:    broadcaster,
		notifier:       notifier,
	}
}

type GameUpdate struct {
	TeamName     *string                `json:"team_name"`
	OpponentName *string                `json:"opponent_name"`
	IsHome       *bool                  `json:"is_home"`
	ScheduledAt  *time.Time             `json:"scheduled_at"`
	HomeScore    *int                   `json:"home_score"`
	AwayScore    *int                   `json:"away_score"`
	Status       *repository.GameStatus `json:"status"`
	StatsLocked  *bool                  `json:"stats_locked"`
	SharedToFeed *bool                  `json:"shared_to_feed"`
}

func (s *GameService) CreateGame(game *repository.Game, principal *repository.User) (*repository.Game, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can create games")
	}
	if strings.TrimSpace(game.TeamName) == "" || strings.TrimSpace(game.OpponentName) == "" {
		return nil, app_error.New(app_error.KindValidation, "team name and opponent name are required")
	}
	if game.Status == "" {
		game.Status = repository.GameStatusUpcoming
	}
	if !game.Status.Valid() {
		return nil, app_error.New(app_error.KindValidation, "invalid game status %q", game.Status)
	}
	if game.HomeScore < 0 || game.AwayScore < 0 {
		return nil, app_error.New(app_error.KindValidation, "scores cannot be negative")
	}
	game.CreatedBy = principal.Id
	game.CreatedAt = time.Now()
	return s.gameRepository.Save(game)
}

func (s *GameService) UpdateGame(gameId int, update GameUpdate, principal *repository.User) (*repository.Game, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can edit games")
	}
	game, err := s.gameRepository.GetGameById(gameId)
	if err != nil {
		return nil, err
	}
	wasCompleted := game.Status == repository.GameStatusCompleted

	if update.TeamName != nil {
		game.TeamName = *update.TeamName
	}
	if update.OpponentName != nil {
		game.OpponentName = *update.OpponentName
	}
	if update.IsHome != nil {
		game.IsHome = *update.IsHome
	}
	if update.ScheduledAt != nil {
		game.ScheduledAt = *update.ScheduledAt
	}
	if update.HomeScore != nil {
		game.HomeScore = *update.HomeScore
	}
	if update.AwayScore != nil {
		game.AwayScore = *update.AwayScore
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, app_error.New(app_error.KindValidation, "invalid game status %q", *update.Status)
		}
		game.Status = *update.Status
	}
	if update.StatsLocked != nil {
		game.StatsLocked = *update.StatsLocked
	}
	if update.SharedToFeed != nil {
		game.SharedToFeed = *update.SharedToFeed
	}
	if game.HomeScore < 0 || game.AwayScore < 0 {
		return nil, app_error.New(app_error.KindValidation, "scores cannot be negative")
	}

	game, err = s.gameRepository.Save(game)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(gameId, EventGameUpdated, GameUpdatePayload{GameId: gameId, Game: game})
	if !wasCompleted && game.Status == repository.GameStatusCompleted && game.SharedToFeed && s.notifier != nil {
		if err := s.notifier.AnnounceFinalScore(game); err != nil {
			logger.Warnf("failed to announce final score for game %d: %v", gameId, err)
		}
	}
	return game, nil
}

func (s *GameService) SetStatsLocked(gameId int, locked bool, principal *repository.User) (*repository.Game, error) {
	return s.UpdateGame(gameId, GameUpdate{StatsLocked: &locked}, principal)
}

func (s *GameService) DeleteGame(gameId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can delete games")
	}
	return s.gameRepository.Delete(gameId)
}

func (s *GameService) GetGameById(gameId int) (*repository.Game, error) {
	return s.gameRepository.GetGameById(gameId)
}

func (s *GameService) ListGames(status *repository.GameStatus) ([]*repository.Game, error) {
	if status != nil && !status.Valid() {
		return nil, app_error.New(app_error.KindValidation, "invalid game status %q", *status)
	}
	return s.gameRepository.FindAll(status)
}
