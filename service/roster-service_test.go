package service

import (
	"testing"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/stretchr/testify/assert"
)

func TestAddToRosterRejectsDuplicateIdentity(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})

	_, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, true, admin)
	assert.NoError(t, err)

	_, err = rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindConflict))
}

func TestRosterUniquenessIsBackedByTheDatabase(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	_, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = rosterService.AddToRoster(game.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	// a writer that slips past the service-level scan still hits the index
	duplicate := &repository.RosterEntry{GameId: game.Id, UserId: &player.Id, CreatedAt: time.Now()}
	err = db.Create(duplicate).Error
	assert.Error(t, err)
	assert.True(t, isConstraintViolation(err))

	duplicateManual := &repository.RosterEntry{GameId: game.Id, ManualPlayerId: &manual.Id, CreatedAt: time.Now()}
	err = db.Create(duplicateManual).Error
	assert.Error(t, err)
	assert.True(t, isConstraintViolation(err))

	// distinct games stay unaffected
	otherGame := createGame(t, true)
	other := &repository.RosterEntry{GameId: otherGame.Id, UserId: &player.Id, CreatedAt: time.Now()}
	assert.NoError(t, db.Create(other).Error)
}

func TestAddToRosterResolvesLinkedManualToSameIdentity(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)
	manual.LinkedUserId = &player.Id
	assert.NoError(t, db.Save(manual).Error)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})

	_, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.NoError(t, err)

	// the linked manual resolves to the registered account already on the roster
	_, err = rosterService.AddToRoster(game.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindConflict))
}

func TestAddToRosterAllowsDistinctManuals(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	first := createManualPlayer(t, "Jo", admin.Id)
	second := createManualPlayer(t, "Sam", admin.Id)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})

	_, err := rosterService.AddToRoster(game.Id, repository.ManualRef(first.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = rosterService.AddToRoster(game.Id, repository.ManualRef(second.Id), nil, false, admin)
	assert.NoError(t, err)

	roster, err := rosterService.ListRoster(game.Id, admin)
	assert.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestAddToRosterRequiresAdmin(t *testing.T) {
	defer TearDown()
	createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	_, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, player)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))
}

func TestRemoveFromRosterReversesStats(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	statService := NewStatService(db, NoopBroadcaster{})
	gameService := NewGameService(db, NoopBroadcaster{}, nil)

	entry, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.NoError(t, err)

	for _, statType := range []repository.StatType{repository.StatTypeTwoPoint, repository.StatTypeThreePoint, repository.StatTypeRebound} {
		_, err = statService.RecordStat(RecordStatRequest{
			GameId:        game.Id,
			RosterEntryId: entry.Id,
			StatType:      statType,
		}, admin)
		assert.NoError(t, err)
	}

	game, err = gameService.GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 5, game.HomeScore)

	err = rosterService.RemoveFromRoster(game.Id, entry.Id, admin)
	assert.NoError(t, err)

	game, err = gameService.GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 0, game.HomeScore)

	roster, err := rosterService.ListRoster(game.Id, admin)
	assert.NoError(t, err)
	assert.Len(t, roster, 0)

	stats, err := repository.NewStatRepository(db).GetStatsForGame(game.Id)
	assert.NoError(t, err)
	assert.Len(t, stats, 0)
}

func TestListRosterFiltersStatsPerViewer(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	child := createUser(t, "child@example.com", repository.RolePlayer)
	parent := createUser(t, "parent@example.com", repository.RoleParent)
	stranger := createUser(t, "stranger@example.com", repository.RoleParent)
	addParentChildRelation(t, parent.Id, child.Id)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	statService := NewStatService(db, NoopBroadcaster{})

	entry, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(child.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeTwoPoint,
	}, admin)
	assert.NoError(t, err)

	// the parent sees the child's stats
	roster, err := rosterService.ListRoster(game.Id, parent)
	assert.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Len(t, roster[0].Stats, 1)

	// a stranger sees the entry but not the stats
	roster, err = rosterService.ListRoster(game.Id, stranger)
	assert.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Len(t, roster[0].Stats, 0)
}

func TestListGamesForPlayerIncludesLinkedManualHistory(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	manual := createManualPlayer(t, "Jo", admin.Id)
	manual.LinkedUserId = &player.Id
	assert.NoError(t, db.Save(manual).Error)

	directGame := createGame(t, true)
	manualGame := createGame(t, false)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	_, err := rosterService.AddToRoster(directGame.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = rosterService.AddToRoster(manualGame.Id, repository.ManualRef(manual.Id), nil, false, admin)
	assert.NoError(t, err)

	games, err := rosterService.ListGamesForPlayer(player.Id, player)
	assert.NoError(t, err)
	assert.Len(t, games, 2)

	stranger := createUser(t, "stranger@example.com", repository.RoleParent)
	_, err = rosterService.ListGamesForPlayer(player.Id, stranger)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))
}
