package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/metrics"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"gorm.io/gorm"
)

// MigrationService reattaches a manual participant's roster and stat history
// onto a registered account. Migration never deletes the manual record; that
// is a separate guarded operation so an admin can verify the merge first.
type MigrationService struct {
	db                     *gorm.DB
	manualPlayerRepository *repository.ManualPlayerRepository
	rosterRepository       *repository.RosterRepository
	userRepository         *repository.UserRepository
}

func NewMigrationService(db *gorm.DB) *MigrationService {
	return &MigrationService{
		db:                     db,
		manualPlayerRepository: repository.NewManualPlayerRepository(db),
		rosterRepository:       repository.NewRosterRepository(db),
		userRepository:         repository.NewUserRepository(db),
	}
}

type MigrationReport struct {
	ManualPlayerId int      `json:"manual_player_id"`
	TargetUserId   int      `json:"target_user_id"`
	Found          int      `json:"found"`
	Migrated       int      `json:"migrated"`
	Duplicates     int      `json:"duplicates"`
	RowErrors      []string `json:"row_errors"`
}

func (s *MigrationService) CreateManualPlayer(name string, jerseyNumber *int, parentUserId *int, principal *repository.User) (*repository.ManualPlayer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, app_error.New(app_error.KindValidation, "manual player name is required")
	}
	if parentUserId != nil {
		if _, err := s.userRepository.GetUserById(*parentUserId); err != nil {
			return nil, err
		}
	}
	player := &repository.ManualPlayer{
		Name:         strings.TrimSpace(name),
		JerseyNumber: jerseyNumber,
		ParentUserId: parentUserId,
		CreatedBy:    principal.Id,
		CreatedAt:    time.Now(),
	}
	return s.manualPlayerRepository.SaveManualPlayer(player)
}

func (s *MigrationService) ListManualPlayers(principal *repository.User) ([]*repository.ManualPlayer, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can list manual players")
	}
	return s.manualPlayerRepository.FindAll()
}

// Link marks a manual player as resolved onto a registered account. Reversible
// with Unlink until a migration lands.
func (s *MigrationService) Link(manualId int, userId int, principal *repository.User) (*repository.ManualPlayer, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can link manual players")
	}
	manual, err := s.manualPlayerRepository.GetManualPlayerById(manualId)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepository.GetUserById(userId)
	if err != nil {
		return nil, err
	}
	manual.LinkedUserId = &user.Id
	return s.manualPlayerRepository.SaveManualPlayer(manual)
}

func (s *MigrationService) Unlink(manualId int, principal *repository.User) (*repository.ManualPlayer, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can unlink manual players")
	}
	manual, err := s.manualPlayerRepository.GetManualPlayerById(manualId)
	if err != nil {
		return nil, err
	}
	manual.LinkedUserId = nil
	return s.manualPlayerRepository.SaveManualPlayer(manual)
}

func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "violates")
}

// Migrate reattaches every roster entry of the manual player onto its linked
// registered account. Rows whose game already has an entry for the target are
// reported as duplicates and skipped, never overwritten. Per-row failures are
// soft unless they are constraint violations, which roll back everything.
func (s *MigrationService) Migrate(manualId int, principal *repository.User) (*MigrationReport, error) {
	if !principal.IsAdmin() {
		return nil, app_error.New(app_error.KindForbidden, "only admins can migrate manual players")
	}
	manual, err := s.manualPlayerRepository.GetManualPlayerById(manualId)
	if err != nil {
		return nil, err
	}
	if !manual.IsLinked() {
		return nil, app_error.New(app_error.KindValidation, "manual player %d is not linked to a registered account", manualId)
	}
	targetUserId := *manual.LinkedUserId
	user, err := s.userRepository.GetUserById(targetUserId)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{
		ManualPlayerId: manualId,
		TargetUserId:   targetUserId,
		RowErrors:      []string{},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		entries := []*repository.RosterEntry{}
		if err := tx.Where("manual_player_id = ?", manualId).Order("id ASC").Find(&entries).Error; err != nil {
			return fmt.Errorf("failed to load roster entries: %w", err)
		}
		report.Found = len(entries)

		jerseyBackfilled := false
		for _, entry := range entries {
			var count int64
			err := tx.Model(&repository.RosterEntry{}).
				Where("game_id = ? AND user_id = ?", entry.GameId, targetUserId).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("failed to check for duplicate entry: %w", err)
			}
			if count > 0 {
				report.Duplicates++
				continue
			}

			entry.UserId = &targetUserId
			entry.ManualPlayerId = nil
			if err := tx.Save(entry).Error; err != nil {
				if isConstraintViolation(err) {
					return fmt.Errorf("constraint violation migrating roster entry %d: %w", entry.Id, err)
				}
				report.RowErrors = append(report.RowErrors, fmt.Sprintf("roster entry %d: %v", entry.Id, err))
				continue
			}
			report.Migrated++

			if user.JerseyNumber == nil && entry.JerseyNumber != nil && !jerseyBackfilled {
				user.JerseyNumber = entry.JerseyNumber
				if err := tx.Save(user).Error; err != nil {
					return fmt.Errorf("failed to backfill jersey number: %w", err)
				}
				jerseyBackfilled = true
			}

			activity := &repository.ActivityLogEntry{
				GameId:      entry.GameId,
				Type:        repository.ActivityPlayerMigrated,
				Description: fmt.Sprintf("Migrated %s's history to %s", manual.Name, user.DisplayName),
				Metadata: repository.ActivityMetadata{
					PlayerName:     manual.Name,
					ManualPlayerId: manualId,
					TargetUserId:   targetUserId,
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
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MigrationsRun.Inc()
	logger.Infof("migrated manual player %d onto user %d: found=%d migrated=%d duplicates=%d errors=%d",
		manualId, targetUserId, report.Found, report.Migrated, report.Duplicates, len(report.RowErrors))
	return report, nil
}

// DeleteMigrated removes a manual record only once the merge has verifiably
// landed: nothing references it, it is linked, and the linked account has
// roster history.
func (s *MigrationService) DeleteMigrated(manualId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can delete manual players")
	}
	manual, err := s.manualPlayerRepository.GetManualPlayerById(manualId)
	if err != nil {
		return err
	}
	referencing, err := s.rosterRepository.CountEntriesForManualPlayer(manualId)
	if err != nil {
		return err
	}
	if referencing > 0 {
		return app_error.New(app_error.KindMigrationGuard, "manual player %d is still referenced by %d roster entries; run migrate first", manualId, referencing)
	}
	if !manual.IsLinked() {
		return app_error.New(app_error.KindMigrationGuard, "manual player %d has no registered linkage; use force delete for unlinked records", manualId)
	}
	linkedEntries, err := s.rosterRepository.CountEntriesForUser(*manual.LinkedUserId)
	if err != nil {
		return err
	}
	if linkedEntries == 0 {
		return app_error.New(app_error.KindMigrationGuard, "linked account %d has no roster entries; the migration has not landed", *manual.LinkedUserId)
	}
	return s.manualPlayerRepository.DeleteManualPlayer(manualId)
}

// ForceDelete is the escape hatch for records that never made it onto a
// roster. It still refuses while roster entries reference the record.
func (s *MigrationService) ForceDelete(manualId int, principal *repository.User) error {
	if !principal.IsAdmin() {
		return app_error.New(app_error.KindForbidden, "only admins can delete manual players")
	}
	if _, err := s.manualPlayerRepository.GetManualPlayerById(manualId); err != nil {
		return err
	}
	referencing, err := s.rosterRepository.CountEntriesForManualPlayer(manualId)
	if err != nil {
		return err
	}
	if referencing > 0 {
		return app_error.New(app_error.KindMigrationGuard, "manual player %d is still referenced by %d roster entries", manualId, referencing)
	}
	return s.manualPlayerRepository.DeleteManualPlayer(manualId)
}
