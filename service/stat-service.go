package service

import (
	"fmt"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/metrics"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"gorm.io/gorm"
)

type StatService struct {
	db                *gorm.DB
	gameRepository    *repository.GameRepository
	rosterRepository  *repository.RosterRepository
	statRepository    *repository.StatRepository
	permissionService *PermissionService
	broadcaster       Broadcaster
}

func NewStatService(db *gorm.DB, broadcaster Broadcaster) *StatService {
	return &StatService{
		db:                db,
		gameRepository:    repository.NewGameRepository(db),
		rosterRepository:  repository.NewRosterRepository(db),
		statRepository:    repository.NewStatRepository(db),
		permissionService: NewPermissionService(db),
		broadcaster:       broadcaster,
	}
}

// applyScoreDelta adds delta to the side of the scoreboard the team plays on,
// clamping at zero so out-of-order corrections cannot drive a score negative.
// The add happens in a single UPDATE against the stored value, never against
// the caller's copy; concurrent deltas therefore commute. game is reloaded
// with the stored row afterwards.
func applyScoreDelta(tx *gorm.DB, game *repository.Game, delta int) error {
	column := "away_score"
	if game.IsHome {
		column = "home_score"
	}
	err := tx.Model(&repository.Game{}).Where("id = ?", game.Id).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta)).Error
	if err != nil {
		return err
	}
	return tx.First(game, game.Id).Error
}

type RecordStatRequest struct {
	GameId        int
	RosterEntryId int
	StatType      repository.StatType
	Value         int
	Quarter       *int
	TimeMinute    *int
}

func (s *StatService) RecordStat(req RecordStatRequest, principal *repository.User) (*repository.StatEvent, error) {
	if !req.StatType.Valid() {
		return nil, app_error.New(app_error.KindValidation, "unknown stat type %q", req.StatType)
	}
	if req.Value == 0 {
		req.Value = 1
	}
	if req.Value < 0 {
		return nil, app_error.New(app_error.KindValidation, "stat value must be positive")
	}
	if req.StatType.IsScoring() && req.Value != 1 {
		return nil, app_error.New(app_error.KindValidation, "scoring stats carry a fixed point value; record them one event at a time")
	}

	game, err := s.gameRepository.GetGameById(req.GameId)
	if err != nil {
		return nil, err
	}
	entry, err := s.rosterRepository.GetEntryById(req.RosterEntryId)
	if err != nil {
		return nil, err
	}
	if entry.GameId != req.GameId {
		return nil, app_error.New(app_error.KindNotFound, "roster entry %d does not belong to game %d", req.RosterEntryId, req.GameId)
	}

	if game.StatsLocked && !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindLocked, "stats are locked for game %d", req.GameId)
	}
	allowed, err := s.permissionService.CanMutate(principal, entry.PlayerRef())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, app_error.New(app_error.KindForbidden, "you are not allowed to record stats for %s", entry.PlayerName())
	}

	stat := &repository.StatEvent{
		GameId:        req.GameId,
		RosterEntryId: req.RosterEntryId,
		StatType:      req.StatType,
		Value:         req.Value,
		Quarter:       req.Quarter,
		TimeMinute:    req.TimeMinute,
		CreatedBy:     principal.Id,
		CreatedAt:     time.Now(),
	}
	delta := req.StatType.PointValue()

	var activity *repository.ActivityLogEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(stat).Error; err != nil {
			return fmt.Errorf("failed to create stat event: %w", err)
		}
		description := fmt.Sprintf("%s recorded a %s", entry.PlayerName(), req.StatType)
		if delta > 0 {
			if err := applyScoreDelta(tx, game, delta); err != nil {
				return fmt.Errorf("failed to update game score: %w", err)
			}
			description = fmt.Sprintf("%s scored %d (%s), score is now %d-%d", entry.PlayerName(), delta, req.StatType, game.HomeScore, game.AwayScore)
		}
		activity = &repository.ActivityLogEntry{
			GameId:      req.GameId,
			Type:        repository.ActivityStatAdded,
			Description: description,
			Metadata: repository.ActivityMetadata{
				StatType:      req.StatType,
				StatValue:     req.Value,
				Delta:         delta,
				HomeScore:     &game.HomeScore,
				AwayScore:     &game.AwayScore,
				PlayerName:    entry.PlayerName(),
				RosterEntryId: entry.Id,
			},
			CreatedBy: principal.Id,
			CreatedAt: time.Now(),
		}
		if err := activity.Validate(); err != nil {
			return err
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StatEventsRecorded.WithLabelValues(string(req.StatType)).Inc()
	if delta > 0 {
		s.broadcaster.Publish(req.GameId, EventScoreUpdate, ScoreUpdatePayload{
			GameId:    req.GameId,
			HomeScore: game.HomeScore,
			AwayScore: game.AwayScore,
			StatType:  req.StatType,
			Delta:     delta,
		})
	}
	s.broadcaster.Publish(req.GameId, EventActivity, ActivityPayload{GameId: req.GameId, Activity: activity})
	return stat, nil
}

func (s *StatService) RemoveStat(gameId int, statId int, principal *repository.User) error {
	game, err := s.gameRepository.GetGameById(gameId)
	if err != nil {
		return err
	}
	stat, err := s.statRepository.GetStatById(statId)
	if err != nil {
		return err
	}
	if stat.GameId != gameId {
		return app_error.New(app_error.KindNotFound, "stat event %d does not belong to game %d", statId, gameId)
	}
	entry := stat.RosterEntry
	if entry == nil {
		return app_error.New(app_error.KindNotFound, "roster entry for stat event %d not found", statId)
	}

	if game.StatsLocked && !principal.IsAdmin() {
		return app_error.New(app_error.KindLocked, "stats are locked for game %d", gameId)
	}
	allowed, err := s.permissionService.CanMutate(principal, entry.PlayerRef())
	if err != nil {
		return err
	}
	if !allowed {
		return app_error.New(app_error.KindForbidden, "you are not allowed to remove stats for %s", entry.PlayerName())
	}

	delta := stat.StatType.PointValue()

	var activity *repository.ActivityLogEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&repository.StatEvent{}, statId).Error; err != nil {
			return fmt.Errorf("failed to delete stat event: %w", err)
		}
		if delta > 0 {
			if err := applyScoreDelta(tx, game, -delta); err != nil {
				return fmt.Errorf("failed to update game score: %w", err)
			}
		}
		activity = &repository.ActivityLogEntry{
			GameId:      gameId,
			Type:        repository.ActivityStatRemoved,
			Description: fmt.Sprintf("Corrected: removed %s for %s, score is now %d-%d", stat.StatType, entry.PlayerName(), game.HomeScore, game.AwayScore),
			Metadata: repository.ActivityMetadata{
				StatType:      stat.StatType,
				StatValue:     stat.Value,
				Delta:         -delta,
				HomeScore:     &game.HomeScore,
				AwayScore:     &game.AwayScore,
				PlayerName:    entry.PlayerName(),
				RosterEntryId: entry.Id,
			},
			CreatedBy: principal.Id,
			CreatedAt: time.Now(),
		}
		if err := activity.Validate(); err != nil {
			return err
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.StatEventsRemoved.WithLabelValues(string(stat.StatType)).Inc()
	if delta > 0 {
		s.broadcaster.Publish(gameId, EventScoreUpdate, ScoreUpdatePayload{
			GameId:    gameId,
			HomeScore: game.HomeScore,
			AwayScore: game.AwayScore,
			StatType:  stat.StatType,
			Delta:     -delta,
		})
	}
	s.broadcaster.Publish(gameId, EventActivity, ActivityPayload{GameId: gameId, Activity: activity})
	return nil
}

// ScoreAudit compares the stored scores against a full recompute from the
// currently present scoring events.
type ScoreAudit struct {
	GameId        int  `json:"game_id"`
	HomeScore     int  `json:"home_score"`
	AwayScore     int  `json:"away_score"`
	ComputedHome  int  `json:"computed_home"`
	ComputedAway  int  `json:"computed_away"`
	Drifted       bool `json:"drifted"`
	ScoringEvents int  `json:"scoring_events"`
}

// AuditScores recomputes both scores from scratch and flags drift. Normal
// score maintenance stays additive; this exists for testing and repair.
func (s *StatService) AuditScores(gameId int) (*ScoreAudit, error) {
	game, err := s.gameRepository.GetGameById(gameId)
	if err != nil {
		return nil, err
	}
	stats, err := s.statRepository.GetStatsForGame(gameId)
	if err != nil {
		return nil, err
	}

	audit := &ScoreAudit{
		GameId:    gameId,
		HomeScore: game.HomeScore,
		AwayScore: game.AwayScore,
	}
	teamPoints := 0
	for _, stat := range stats {
		if stat.StatType.IsScoring() {
			teamPoints += stat.StatType.PointValue()
			audit.ScoringEvents++
		}
	}
	// the opposing side's score is only ever set by explicit admin edits, so
	// the recompute applies to the team side alone
	if game.IsHome {
		audit.ComputedHome = teamPoints
		audit.ComputedAway = game.AwayScore
	} else {
		audit.ComputedHome = game.HomeScore
		audit.ComputedAway = teamPoints
	}
	audit.Drifted = audit.ComputedHome != game.HomeScore || audit.ComputedAway != game.AwayScore
	if audit.Drifted {
		metrics.ScoreDriftDetected.Inc()
		logger.Warnf("score drift on game %d: stored %d-%d, computed %d-%d",
			gameId, game.HomeScore, game.AwayScore, audit.ComputedHome, audit.ComputedAway)
	}
	return audit, nil
}

// RepairScores overwrites the stored scores with the recomputed values and
// logs the correction. Admin-only.
func (s *StatService) RepairScores(gameId int, principal *repository.User) (*ScoreAudit, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can repair scores")
	}
	audit, err := s.AuditScores(gameId)
	if err != nil {
		return nil, err
	}
	if !audit.Drifted {
		return audit, nil
	}

	game, err := s.gameRepository.GetGameById(gameId)
	if err != nil {
		return nil, err
	}
	game.HomeScore = audit.ComputedHome
	game.AwayScore = audit.ComputedAway

	activity := &repository.ActivityLogEntry{
		GameId:      gameId,
		Type:        repository.ActivityScoreUpdated,
		Description: fmt.Sprintf("Score repaired to %d-%d after audit", game.HomeScore, game.AwayScore),
		Metadata: repository.ActivityMetadata{
			HomeScore: &game.HomeScore,
			AwayScore: &game.AwayScore,
		},
		CreatedBy: principal.Id,
		CreatedAt: time.Now(),
	}
	if err := activity.Validate(); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&repository.Game{}).Where("id = ?", gameId).
			Updates(map[string]interface{}{"home_score": game.HomeScore, "away_score": game.AwayScore}).Error
		if err != nil {
			return fmt.Errorf("failed to repair game score: %w", err)
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(gameId, EventScoreUpdate, ScoreUpdatePayload{
		GameId:    gameId,
		HomeScore: game.HomeScore,
		AwayScore: game.AwayScore,
	})
	return audit, nil
}
