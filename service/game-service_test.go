package service

import (
	"testing"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	announced []*repository.Game
}

func (n *recordingNotifier) AnnounceFinalScore(game *repository.Game) error {
	n.announced = append(n.announced, game)
	return nil
}

func TestCreateGameValidation(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)

	gameService := NewGameService(db, NoopBroadcaster{}, nil)

	_, err := gameService.CreateGame(&repository.Game{TeamName: "Hornets"}, admin)
	assert.True(t, app_error.IsKind(err, app_error.KindValidation))

	_, err = gameService.CreateGame(&repository.Game{TeamName: "Hornets", OpponentName: "Wildcats"}, player)
	assert.True(t, app_error.IsKind(err, app_error.KindForbidden))

	game, err := gameService.CreateGame(&repository.Game{TeamName: "Hornets", OpponentName: "Wildcats"}, admin)
	assert.NoError(t, err)
	assert.Equal(t, repository.GameStatusUpcoming, game.Status)
	assert.Equal(t, admin.Id, game.CreatedBy)
}

func TestUpdateGameAnnouncesSharedFinalScore(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	game := createGame(t, true)
	game.SharedToFeed = true
	assert.NoError(t, db.Save(game).Error)

	notifier := &recordingNotifier{}
	broadcaster := &recordingBroadcaster{}
	gameService := NewGameService(db, broadcaster, notifier)

	completed := repository.GameStatusCompleted
	updated, err := gameService.UpdateGame(game.Id, GameUpdate{Status: &completed}, admin)
	assert.NoError(t, err)
	assert.Equal(t, repository.GameStatusCompleted, updated.Status)
	assert.Len(t, notifier.announced, 1)
	assert.Equal(t, []EventKind{EventGameUpdated}, broadcaster.kinds())

	// already completed, no second announcement
	locked := true
	_, err = gameService.UpdateGame(game.Id, GameUpdate{StatsLocked: &locked}, admin)
	assert.NoError(t, err)
	assert.Len(t, notifier.announced, 1)
}

func TestUpdateGameUnsharedStaysQuiet(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	game := createGame(t, true)

	notifier := &recordingNotifier{}
	gameService := NewGameService(db, NoopBroadcaster{}, notifier)

	completed := repository.GameStatusCompleted
	_, err := gameService.UpdateGame(game.Id, GameUpdate{Status: &completed}, admin)
	assert.NoError(t, err)
	assert.Len(t, notifier.announced, 0)
}

func TestDeleteGameCascades(t *testing.T) {
	defer TearDown()
	admin := createUser(t, "admin@example.com", repository.RoleAdmin)
	player := createUser(t, "player@example.com", repository.RolePlayer)
	game := createGame(t, true)

	rosterService := NewRosterService(db, NoopBroadcaster{})
	statService := NewStatService(db, NoopBroadcaster{})
	gameService := NewGameService(db, NoopBroadcaster{}, nil)

	entry, err := rosterService.AddToRoster(game.Id, repository.RegisteredRef(player.Id), nil, false, admin)
	assert.NoError(t, err)
	_, err = statService.RecordStat(RecordStatRequest{
		GameId:        game.Id,
		RosterEntryId: entry.Id,
		StatType:      repository.StatTypeTwoPoint,
	}, admin)
	assert.NoError(t, err)

	assert.NoError(t, gameService.DeleteGame(game.Id, admin))

	_, err = gameService.GetGameById(game.Id)
	assert.True(t, app_error.IsKind(err, app_error.KindNotFound))

	entries, err := repository.NewRosterRepository(db).GetEntriesForUser(player.Id)
	assert.NoError(t, err)
	assert.Len(t, entries, 0)
}

func TestListGamesStatusFilter(t *testing.T) {
	defer TearDown()
	createUser(t, "admin@example.com", repository.RoleAdmin)
	live := createGame(t, true)
	completedGame := createGame(t, true)
	completedGame.Status = repository.GameStatusCompleted
	assert.NoError(t, db.Save(completedGame).Error)

	gameService := NewGameService(db, NoopBroadcaster{}, nil)

	games, err := gameService.ListGames(nil)
	assert.NoError(t, err)
	assert.Len(t, games, 2)

	status := repository.GameStatusLive
	games, err = gameService.ListGames(&status)
	assert.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Equal(t, live.Id, games[0].Id)

	bad := repository.GameStatus("postponed")
	_, err = gameService.ListGames(&bad)
	assert.True(t, app_error.IsKind(err, app_error.KindValidation))
}
