package controller

import (
	"strconv"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RosterController struct {
	rosterService *service.RosterService
}

func NewRosterController(db *gorm.DB, broadcaster service.Broadcaster) *RosterController {
	return &RosterController{
		rosterService: service.NewRosterService(db, broadcaster),
	}
}

func setupRosterController(db *gorm.DB, broadcaster service.Broadcaster) []RouteInfo {
	e := NewRosterController(db, broadcaster)
	routes := []RouteInfo{
		{Method: "GET", Path: "/games/:game_id/roster", HandlerFunc: e.listRosterHandler(), Authenticated: true},
		{Method: "POST", Path: "/games/:game_id/roster", HandlerFunc: e.addToRosterHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "DELETE", Path: "/games/:game_id/roster/:entry_id", HandlerFunc: e.removeFromRosterHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "GET", Path: "/users/:user_id/games", HandlerFunc: e.listGamesForPlayerHandler(), Authenticated: true},
	}
	return routes
}

type RosterEntryCreate struct {
	UserId         *int `json:"user_id"`
	ManualPlayerId *int `json:"manual_player_id"`
	JerseyNumber   *int `json:"jersey_number"`
	IsStarter      bool `json:"is_starter"`
}

// @id AddToRoster
// @Description Adds a registered or manual player to a game roster
// @Tags roster
// @Accept json
// @Produce json
// @Param game_id path int true "Game Id"
// @Param entry body RosterEntryCreate true "Roster entry"
// @Success 201 {object} RosterEntry
// @Security BearerAuth
// @Router /games/{game_id}/roster [post]
func (e *RosterController) addToRosterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		var create RosterEntryCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var ref repository.PlayerRef
		switch {
		case create.UserId != nil && create.ManualPlayerId != nil:
			c.JSON(400, gin.H{"error": "provide either user_id or manual_player_id, not both"})
			return
		case create.UserId != nil:
			ref = repository.RegisteredRef(*create.UserId)
		case create.ManualPlayerId != nil:
			ref = repository.ManualRef(*create.ManualPlayerId)
		default:
			c.JSON(400, gin.H{"error": "user_id or manual_player_id is required"})
			return
		}
		entry, err := e.rosterService.AddToRoster(gameId, ref, create.JerseyNumber, create.IsStarter, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(201, toRosterEntryResponse(entry, []*repository.StatEvent{}))
	}
}

// @id RemoveFromRoster
// @Description Removes a roster entry and reverses its stat events
// @Tags roster
// @Param game_id path int true "Game Id"
// @Param entry_id path int true "Roster Entry Id"
// @Success 204
// @Security BearerAuth
// @Router /games/{game_id}/roster/{entry_id} [delete]
func (e *RosterController) removeFromRosterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		entryId, err := strconv.Atoi(c.Param("entry_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid roster entry id"})
			return
		}
		if err := e.rosterService.RemoveFromRoster(gameId, entryId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

// @id ListRoster
// @Description Fetches the game roster with stats filtered per viewer
// @Tags roster
// @Produce json
// @Param game_id path int true "Game Id"
// @Success 200 {array} RosterEntry
// @Security BearerAuth
// @Router /games/{game_id}/roster [get]
func (e *RosterController) listRosterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		roster, err := e.rosterService.ListRoster(gameId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		response := make([]*RosterEntry, 0, len(roster))
		for _, annotated := range roster {
			response = append(response, toRosterEntryResponse(annotated.Entry, annotated.Stats))
		}
		c.JSON(200, response)
	}
}

// @id ListGamesForPlayer
// @Description Fetches the games a registered player appears in, directly or via a linked manual identity
// @Tags roster
// @Produce json
// @Param user_id path int true "User Id"
// @Success 200 {array} Game
// @Security BearerAuth
// @Router /users/{user_id}/games [get]
func (e *RosterController) listGamesForPlayerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user id"})
			return
		}
		games, err := e.rosterService.ListGamesForPlayer(userId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		response := make([]*Game, 0, len(games))
		for _, game := range games {
			response = append(response, toGameResponse(game))
		}
		c.JSON(200, response)
	}
}

type RosterEntry struct {
	Id             int          `json:"id" binding:"required"`
	GameId         int          `json:"game_id" binding:"required"`
	PlayerKind     string       `json:"player_kind" binding:"required"`
	PlayerName     string       `json:"player_name" binding:"required"`
	UserId         *int         `json:"user_id"`
	ManualPlayerId *int         `json:"manual_player_id"`
	JerseyNumber   *int         `json:"jersey_number"`
	IsStarter      bool         `json:"is_starter"`
	MinutesPlayed  int          `json:"minutes_played"`
	Stats          []*StatEvent `json:"stats" binding:"required"`
}

type StatEvent struct {
	Id         int       `json:"id" binding:"required"`
	GameId     int       `json:"game_id" binding:"required"`
	StatType   string    `json:"stat_type" binding:"required"`
	Value      int       `json:"value" binding:"required"`
	Quarter    *int      `json:"quarter"`
	TimeMinute *int      `json:"time_minute"`
	CreatedAt  time.Time `json:"created_at" binding:"required"`
}

func toStatEventResponse(stat *repository.StatEvent) *StatEvent {
	return &StatEvent{
		Id:         stat.Id,
		GameId:     stat.GameId,
		StatType:   string(stat.StatType),
		Value:      stat.Value,
		Quarter:    stat.Quarter,
		TimeMinute: stat.TimeMinute,
		CreatedAt:  stat.CreatedAt,
	}
}

func toRosterEntryResponse(entry *repository.RosterEntry, stats []*repository.StatEvent) *RosterEntry {
	response := &RosterEntry{
		Id:             entry.Id,
		GameId:         entry.GameId,
		PlayerKind:     string(entry.PlayerRef().Kind),
		PlayerName:     entry.PlayerName(),
		UserId:         entry.UserId,
		ManualPlayerId: entry.ManualPlayerId,
		JerseyNumber:   entry.JerseyNumber,
		IsStarter:      entry.IsStarter,
		MinutesPlayed:  entry.MinutesPlayed,
		Stats:          make([]*StatEvent, 0, len(stats)),
	}
	for _, stat := range stats {
		response.Stats = append(response.Stats, toStatEventResponse(stat))
	}
	return response
}
