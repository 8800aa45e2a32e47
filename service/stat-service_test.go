package service

import (
	"testing"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/stretchr/testify/assert"
)

func addRosterEntry(t *testing.T, admin *repository.User, gameId int, ref repository.PlayerRef) *repository.RosterEntry {
	t.Helper()
	entry, err := NewRosterService(db, NoopBroadcaster{}).AddToRoster(gameId, ref, nil, false, admin)
	if err != nil {
		t.Fatalf("could not add roster entry: %s", err)
	}
	return entry
}

func TestRecordStatUpdatesScore(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	broadcaster := &recordingBroadcaster{}
	statService := NewStatService(db, broadcaster)

	stat, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeThreePoint,
	}, admin)
	assert.NoError(t, err)
	assert.Equal(t, 1, stat.Value)

	game, err = NewGameService(db, NoopBroadcaster{}, nil).GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 3, game.HomeScore)
	assert.Equal(t, 0, game.AwayScore)

	// a score update and an activity notification, in that order
	assert.Equal(t, []EventKind{EventScoreUpdate, EventActivity}, broadcaster.kinds())

	activities, err := NewActivityService(db).ListActivities(game.Id)
	assert.NoError(t, err)
	// player_added from roster setup, then stat_added
	assert.Len(t, activities, 2)
	assert.Equal(t, repository.ActivityStatAdded, activities[1].Type)
	assert.Equal(t, 3, activities[1].Metadata.Delta)
}

func TestRecordStatNonScoringLeavesScoreAlone(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	broadcaster := &recordingBroadcaster{}
	statService := NewStatService(db, broadcaster)

	_, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeRebound,
		Value:         4,
	}, admin)
	assert.NoError(t, err)

	game, err = NewGameService(db, NoopBroadcaster{}, nil).GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 0, game.HomeScore)
	assert.Equal(t, []EventKind{EventActivity}, broadcaster.kinds())
}

func TestRecordStatValidation(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	statService := NewStatService(db, NoopBroadcaster{})

	_, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      "dunk",
	}, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindValidation))

	// scoring types carry a fixed point value, so bulk values are rejected
	_, err = statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeTwoPoint,
		Value:         3,
	}, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindValidation))
}

func TestRemoveStatRoundTrip(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, false)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	statService := NewStatService(db, NoopBroadcaster{})
	gameService := NewGameService(db, NoopBroadcaster{}, nil)

	stat, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeTwoPoint,
	}, admin)
	assert.NoError(t, err)

	game, err = gameService.GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 2, game.AwayScore)

	err = statService.RemoveStat(game.Id, stat.Id, admin)
	assert.NoError(t, err)

	game, err = gameService.GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 0, game.AwayScore)
	assert.Equal(t, 0, game.HomeScore)

	// both the add and the correction stay in the log
	activities, err := NewActivityService(db).ListActivities(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, repository.ActivityStatRemoved, activities[len(activities)-1].Type)
}

func TestRecordStatLockedGame(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	game.StatsLocked = true
	assert.NoError(t, db.Save(game).Error)

	statService := NewStatService(db, NoopBroadcaster{})

	// non-admin hits the lock even for their own entry
	_, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeFreeThrow,
	}, player)
	assert.True(t, app_error.IsKind(err, app_error.KindLocked))

	// admins bypass the lock
	_, err = statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeFreeThrow,
	}, admin)
	assert.NoError(t, err)
}

func TestRecordStatPermissions(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	child := createUser(t, "child@example.com", repository.RolePlayer)
	parent := createUser(t, "parent@example.com", repository.RoleParent)
	stranger := createUser(t, "stranger@example.com", repository.RoleParent)
	addParentChildRelation(t, parent.Id, child.Id)

	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(child.Id))

	statService := NewStatService(db, NoopBroadcaster{})

	_, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeSteal,
	}, parent)
	assert.NoError(t, err)

	_, err = statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeSteal,
	}, stranger)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))
}

func TestScoreDeltasCommuteAcrossStaleCopies(t *testing.T) {
	defer TearDown()
	createUser(t, "admin@example.com", repository.RoleAdmin)
	game := createGame(t, true)

	// two copies loaded before either write lands, as concurrent recorders see it
	first := &repository.Game{}
	second := &repository.Game{}
	assert.NoError(t, db.First(first, game.Id).Error)
	assert.NoError(t, db.First(second, game.Id).Error)

	assert.NoError(t, applyScoreDelta(db, first, 2))
	assert.NoError(t, applyScoreDelta(db, second, 3))

	// the second add lands on top of the first, not on the stale copy
	assert.Equal(t, 5, second.HomeScore)

	stored := &repository.Game{}
	assert.NoError(t, db.First(stored, game.Id).Error)
	assert.Equal(t, 5, stored.HomeScore)
	assert.Equal(t, 0, stored.AwayScore)
}

func TestScoreDeltaClampsAndLeavesOtherColumnsAlone(t *testing.T) {
	defer TearDown()
	createUser(t, "admin@example.com", repository.RoleAdmin)
	game := createGame(t, true)

	// an admin edit lands after our copy of the row was read
	assert.NoError(t, db.Model(&repository.Game{}).Where("id = ?", game.Id).Update("opponent_name", "Tigers").Error)

	assert.NoError(t, applyScoreDelta(db, game, -5))
	assert.Equal(t, 0, game.HomeScore)
	assert.Equal(t, "Tigers", game.OpponentName)
}

func TestAuditAndRepairScores(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)
	entry := addRosterEntry(t, admin, game.Id, repository.RegisteredRef(player.Id))

	statService := NewStatService(db, NoopBroadcaster{})
	_, err := statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeThreePoint,
	}, admin)
	assert.NoError(t, err)

	audit, err := statService.AuditScores(game.Id)
	assert.NoError(t, err)
	assert.False(t, audit.Drifted)
	assert.Equal(t, 3, audit.ComputedHome)
	assert.Equal(t, 1, audit.ScoringEvents)

	// manufacture drift behind the service's back
	assert.NoError(t, db.Model(&repository.Game{}).Where("id = ?", game.Id).Update("home_score", 10).Error)

	audit, err = statService.AuditScores(game.Id)
	assert.NoError(t, err)
	assert.True(t, audit.Drifted)

	audit, err = statService.RepairScores(game.Id, admin)
	assert.NoError(t, err)
	assert.True(t, audit.Drifted)

	game, err = NewGameService(db, NoopBroadcaster{}, nil).GetGameById(game.Id)
	assert.NoError(t, err)
	assert.Equal(t, 3, game.HomeScore)
}
