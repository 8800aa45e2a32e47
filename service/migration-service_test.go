package service

import (
	"testing"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/stretchr/testify/assert"
)

func TestMigrateMovesHistoryAndKeepsManualRecord(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	target := createUser(t, "target@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)

	firstGame := createGame(t, true)
	secondGame := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	migrationService := NewMigrationService(db)

	_, err := rosterService.AddToRoster(firstGame.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = rosterService.AddToRoster(secondGame.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	_, err = migrationService.Link(manual.Id, target.Id, admin)
	assert.NoError(t, err)

	report, err := migrationService.Migrate(manual.Id, admin)
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Found)
	assert.Equal(t, 2, report.Migrated)
	assert.Equal(t, 0, report.Duplicates)
	assert.Empty(t, report.RowErrors)

	// entries now point at the registered account
	entries, err := repository.NewRosterRepository(db).GetEntriesForUser(target.Id)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Nil(t, entry.ManualPlayerId)
	}

	// the manual record survives migration until explicitly deleted
	_, err = repository.NewManualPlayerRepository(db).GetManualPlayerById(manual.Id)
	assert.NoError(t, err)

	// each migrated entry leaves a trace in the game's log
	activities, err := NewActivityService(db).ListActivities(firstGame.Id)
	assert.NoError(t, err)
	assert.Equal(t, repository.ActivityPlayerMigrated, activities[len(activities)-1].Type)
}

func TestMigrateSkipsGamesWhereTargetAlreadyPresent(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	target := createUser(t, "target@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)

	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	migrationService := NewMigrationService(db)

	// both the target and the manual identity are on the same game before linking
	_, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(target.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = rosterService.AddToRoster(game.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	_, err = migrationService.Link(manual.Id, target.Id, admin)
	assert.NoError(t, err)

	report, err := migrationService.Migrate(manual.Id, admin)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Found)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 1, report.Duplicates)

	// repeating the migration reports the same duplicates, never doubles rows
	report, err = migrationService.Migrate(manual.Id, admin)
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 1, report.Duplicates)

	count, err := repository.NewRosterRepository(db).CountEntriesForUser(target.Id)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMigrateRequiresLink(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	manual := createManualPlayer(t, "Jo", admin.Id)

	_, err := NewMigrationService(db).Migrate(manual.Id, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindValidation))
}

func TestMigrateBackfillsJerseyNumber(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	target := createUser(t, "target@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)
	game := createGame(t, true)

	jersey := 23
	rosterService := NewRosterService(db, NoopBroadcaster{})
	migrationService := NewMigrationService(db)

	_, err := rosterService.AddToRoster(game.Id, repository.ManualRef(manual.Id), &jersey, false, admin)
	assert.NoError(t, err)
	_, err = migrationService.Link(manual.Id, target.Id, admin)
	assert.NoError(t, err)
	_, err = migrationService.Migrate(manual.Id, admin)
	assert.NoError(t, err)

	target, err = repository.NewUserRepository(db).GetUserById(target.Id)
	assert.NoError(t, err)
	if assert.NotNil(t, target.JerseyNumber) {
		assert.Equal(t, 23, *target.JerseyNumber)
	}
}

func TestDeleteMigratedGuards(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	target := createUser(t, "target@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	migrationService := NewMigrationService(db)

	_, err := rosterService.AddToRoster(game.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	// still referenced by a roster entry
	err = migrationService.DeleteMigrated(manual.Id, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindMigrationGuard))

	_, err = migrationService.Link(manual.Id, target.Id, admin)
	assert.NoError(t, err)
	_, err = migrationService.Migrate(manual.Id, admin)
	assert.NoError(t, err)

	// all guards pass once the migration has landed
	err = migrationService.DeleteMigrated(manual.Id, admin)
	assert.NoError(t, err)

	_, err = repository.NewManualPlayerRepository(db).GetManualPlayerById(manual.Id)
	assert.True(t, app_error.IsKind(err, app_error.KindNotFound))
}

func TestDeleteMigratedRefusesUnlinked(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	manual := createManualPlayer(t, "Jo", admin.Id)

	migrationService := NewMigrationService(db)

	err := migrationService.DeleteMigrated(manual.Id, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindMigrationGuard))

	// the unlinked record with no history goes through the escape hatch instead
	err = migrationService.ForceDelete(manual.Id, admin)
	assert.NoError(t, err)
}

func TestForceDeleteRefusesReferencedRecord(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	manual := createManualPlayer(t, "Jo", admin.Id)
	game := createGame(t, true)

	_, err := NewRosterService(db, NoopBroadcaster{}).AddToRoster(game.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	err = NewMigrationService(db).ForceDelete(manual.Id, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindMigrationGuard))
}

func TestMigrationRequiresAdmin(t *testing.T) {
	defer TearDown()
	createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", player.Id)

	migrationService := NewMigrationService(db)

	_, err := migrationService.Migrate(manual.Id, player)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))
	err = migrationService.DeleteMigrated(manual.Id, player)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))
}
