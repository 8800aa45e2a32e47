package service

import (
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/utils"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"gorm.io/gorm"
)

type RosterService struct {
	db                     *gorm.DB
	gameRepository         *repository.GameRepository
	rosterRepository       *repository.RosterRepository
	statRepository         *repository.StatRepository
	manualPlayerRepository *repository.ManualPlayerRepository
	userRepository         *repository.UserRepository
	permissionService      *PermissionService
	broadcaster            Broadcaster
}

func NewRosterService(db *gorm.DB, broadcaster Broadcaster) *RosterService {
	return &RosterService{
		db:                     db,
		gameRepository:         repository.NewGameRepository(db),
		rosterRepository:       repository.NewRosterRepository(db),
		statRepository:         repository.NewStatRepository(db),
		manualPlayerRepository: repository.NewManualPlayerRepository(db),
		userRepository:         repository.NewUserRepository(db),
		permissionService:      NewPermissionService(db),
		broadcaster:            broadcaster,
	}
}

// RosterEntryWithStats is a roster row annotated with the stats the principal
// is allowed to see. Entries themselves are always visible.
type RosterEntryWithStats struct {
	Entry *repository.RosterEntry
	Stats []*repository.StatEvent
}

// resolvedIdentityKey collapses a player reference onto the identity the
// one-entry-per-game invariant is enforced against: the registered account for
// registered refs and linked manuals, the manual row otherwise.
func (s *RosterService) resolvedIdentityKey(ref repository.PlayerRef) (string, error) {
	switch ref.Kind {
	case repository.PlayerKindRegistered:
		return fmt.Sprintf("user:%d", ref.UserId), nil
	case repository.PlayerKindManual:
		manual, err := s.manualPlayerRepository.GetManualPlayerById(ref.ManualId)
		if err != nil {
			return "", err
		}
		if manual.IsLinked() {
			return fmt.Sprintf("user:%d", *manual.LinkedUserId), nil
		}
		return fmt.Sprintf("manual:%d", ref.ManualId), nil
	}
	return "", app_error.New(app_error.KindValidation, "player reference must be registered or manual")
}

func (s *RosterService) AddToRoster(gameId int, ref repository.PlayerRef, jerseyNumber *int, isStarter bool, principal *repository.User) (*repository.RosterEntry, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can add players to a roster")
	}
	if _, err := s.gameRepository.GetGameById(gameId); err != nil {
		return nil, err
	}

	var playerName string
	switch ref.Kind {
	case repository.PlayerKindRegistered:
		user, err := s.userRepository.GetUserById(ref.UserId)
		if err != nil {
			return nil, err
		}
		playerName = user.DisplayName
	case repository.PlayerKindManual:
		manual, err := s.manualPlayerRepository.GetManualPlayerById(ref.ManualId)
		if err != nil {
			return nil, err
		}
		playerName = manual.Name
	default:
		return nil, app_error.New(app_error.KindValidation, "player reference must be registered or manual")
	}

	candidateKey, err := s.resolvedIdentityKey(ref)
	if err != nil {
		return nil, err
	}
	existing, err := s.rosterRepository.GetEntriesForGame(gameId)
	if err != nil {
		return nil, err
	}
	for _, entry := range existing {
		existingKey, err := s.resolvedIdentityKey(entry.PlayerRef())
		if err != nil {
			return nil, err
		}
		if existingKey == candidateKey {
			return nil, app_error.New(app_error.KindConflict, "%s is already on the roster for game %d", playerName, gameId)
		}
	}

	entry := &repository.RosterEntry{
		GameId:       gameId,
		JerseyNumber: jerseyNumber,
		IsStarter:    isStarter,
		CreatedAt:    time.Now(),
	}
	if ref.IsRegistered() {
		entry.UserId = &ref.UserId
	} else {
		entry.ManualPlayerId = &ref.ManualId
	}

	activity := &repository.ActivityLogEntry{
		GameId:      gameId,
		Type:        repository.ActivityPlayerAdded,
		Description: fmt.Sprintf("Added %s player %s to the roster", ref.Kind, playerName),
		Metadata: repository.ActivityMetadata{
			PlayerName: playerName,
			PlayerKind: ref.Kind,
		},
		CreatedBy: principal.Id,
		CreatedAt: time.Now(),
	}
	if err := activity.Validate(); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create roster entry: %w", err)
		}
		activity.Metadata.RosterEntryId = entry.Id
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(gameId, EventActivity, ActivityPayload{GameId: gameId, Activity: activity})
	return entry, nil
}

func (s *RosterService) RemoveFromRoster(gameId int, entryId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can remove players from a roster")
	}
	game, err := s.gameRepository.GetGameById(gameId)
	if err != nil {
		return err
	}
	entry, err := s.rosterRepository.GetEntryById(entryId)
	if err != nil {
		return err
	}
	if entry.GameId != gameId {
		return app_error.New(app_error.KindNotFound, "roster entry %d does not belong to game %d", entryId, gameId)
	}

	stats, err := s.statRepository.GetStatsForEntry(entryId)
	if err != nil {
		return err
	}
	reversal := 0
	for _, stat := range stats {
		reversal += stat.StatType.PointValue()
	}

	playerName := entry.PlayerName()
	activity := &repository.ActivityLogEntry{
		GameId:      gameId,
		Type:        repository.ActivityPlayerRemoved,
		Description: fmt.Sprintf("Removed %s player %s from the roster (%d stat events reversed)", entry.PlayerRef().Kind, playerName, len(stats)),
		Metadata: repository.ActivityMetadata{
			PlayerName:    playerName,
			PlayerKind:    entry.PlayerRef().Kind,
			RosterEntryId: entry.Id,
			Delta:         -reversal,
		},
		CreatedBy: principal.Id,
		CreatedAt: time.Now(),
	}
	if err := activity.Validate(); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if reversal > 0 {
			if err := applyScoreDelta(tx, game, -reversal); err != nil {
				return fmt.Errorf("failed to reverse scores: %w", err)
			}
		}
		if len(stats) > 0 {
			if err := tx.Where("roster_entry_id = ?", entryId).Delete(&repository.StatEvent{}).Error; err != nil {
				return fmt.Errorf("failed to delete stat events: %w", err)
			}
		}
		if err := tx.Delete(&repository.RosterEntry{}, entryId).Error; err != nil {
			return fmt.Errorf("failed to delete roster entry: %w", err)
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if reversal > 0 {
		s.broadcaster.Publish(gameId, EventScoreUpdate, ScoreUpdatePayload{
			GameId:    gameId,
			HomeScore: game.HomeScore,
			AwayScore: game.AwayScore,
			Delta:     -reversal,
		})
	}
	s.broadcaster.Publish(gameId, EventActivity, ActivityPayload{GameId: gameId, Activity: activity})
	logger.Infof("removed roster entry %d from game %d, reversed %d points", entryId, gameId, reversal)
	return nil
}

// ListRoster returns every roster entry of the game; stats are emptied for
// entries the principal cannot view, never omitted.
func (s *RosterService) ListRoster(gameId int, principal *repository.User) ([]*RosterEntryWithStats, error) {
	if _, err := s.gameRepository.GetGameById(gameId); err != nil {
		return nil, err
	}
	entries, err := s.rosterRepository.GetEntriesForGame(gameId)
	if err != nil {
		return nil, err
	}
	stats, err := s.statRepository.GetStatsForGame(gameId)
	if err != nil {
		return nil, err
	}
	statsByEntry := make(map[int][]*repository.StatEvent)
	for _, stat := range stats {
		statsByEntry[stat.RosterEntryId] = append(statsByEntry[stat.RosterEntryId], stat)
	}

	result := make([]*RosterEntryWithStats, 0, len(entries))
	for _, entry := range entries {
		visible, err := s.permissionService.CanView(principal, entry.PlayerRef())
		if err != nil {
			return nil, err
		}
		annotated := &RosterEntryWithStats{Entry: entry, Stats: []*repository.StatEvent{}}
		if visible {
			if entryStats, ok := statsByEntry[entry.Id]; ok {
				annotated.Stats = entryStats
			}
		}
		result = append(result, annotated)
	}
	return result, nil
}

// ListGamesForPlayer returns the games in which the given registered player has
// a roster entry, directly or through a linked manual identity.
func (s *RosterService) ListGamesForPlayer(userId int, principal *repository.User) ([]*repository.Game, error) {
	allowed, err := s.permissionService.CanView(principal, repository.RegisteredRef(userId))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, app_error.New(app_error.KindForbidden, "you are not allowed to view this player's games")
	}

	entries, err := s.rosterRepository.GetEntriesForUser(userId)
	if err != nil {
		return nil, err
	}
	manuals, err := s.manualPlayerRepository.FindByLinkedUser(userId)
	if err != nil {
		return nil, err
	}
	for _, manual := range manuals {
		manualEntries, err := s.rosterRepository.GetEntriesForManualPlayer(manual.Id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, manualEntries...)
	}

	gameIds := make(map[int]bool)
	for _, entry := range entries {
		gameIds[entry.GameId] = true
	}
	return s.gameRepository.GetGamesByIds(utils.Keys(gameIds))
}
