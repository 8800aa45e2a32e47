package controller

import (
	"strconv"
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GameController struct {
	gameService *service.GameService
	statService *service.StatService
}

func NewGameController(db *gorm.DB, broadcaster service.Broadcaster, notifier service.FinalScoreNotifier) *GameController {
	return &GameController{
		gameService: service.NewGameService(db, broadcaster, notifier),
		statService: service.NewStatService(db, broadcaster),
	}
}

func setupGameController(db *gorm.DB, broadcaster service.Broadcaster, notifier service.FinalScoreNotifier, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewGameController(db, broadcaster, notifier)
	basePath := "/games"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: cache.CachePage(cacheStore, 30*time.Second, e.listGamesHandler())},
		{Method: "GET", Path: "/:game_id", HandlerFunc: e.getGameHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createGameHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "PATCH", Path: "/:game_id", HandlerFunc: e.updateGameHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "DELETE", Path: "/:game_id", HandlerFunc: e.deleteGameHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "POST", Path: "/:game_id/lock", HandlerFunc: e.setLockHandler(true), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "POST", Path: "/:game_id/unlock", HandlerFunc: e.setLockHandler(false), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "GET", Path: "/:game_id/audit", HandlerFunc: e.auditScoresHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
		{Method: "POST", Path: "/:game_id/repair", HandlerFunc: e.repairScoresHandler(), Authenticated: true, RequiredRoles: []repository.Role{repository.RoleAdmin}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

func gameIdParam(c *gin.Context) (int, bool) {
	gameId, err := strconv.Atoi(c.Param("game_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid game id"})
		return 0, false
	}
	return gameId, true
}

type GameCreate struct {
	TeamName     string    `json:"team_name" binding:"required"`
	OpponentName string    `json:"opponent_name" binding:"required"`
	IsHome       *bool     `json:"is_home" binding:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	Status       string    `json:"status"`
	SharedToFeed bool      `json:"shared_to_feed"`
}

// @id CreateGame
// @Description Creates a game
// @Tags game
// @Accept json
// @Produce json
// @Param game body GameCreate true "Game"
// @Success 201 {object} Game
// @Security BearerAuth
// @Router /games [post]
func (e *GameController) createGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var create GameCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		game := &repository.Game{
			TeamName:     create.TeamName,
			OpponentName: create.OpponentName,
			IsHome:       *create.IsHome,
			ScheduledAt:  create.ScheduledAt,
			Status:       repository.GameStatus(create.Status),
			SharedToFeed: create.SharedToFeed,
		}
		game, err := e.gameService.CreateGame(game, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(201, toGameResponse(game))
	}
}

// @id ListGames
// @Description Fetches all games, optionally filtered by status
// @Tags game
// @Produce json
// @Param status query string false "Game status"
// @Success 200 {array} Game
// @Router /games [get]
func (e *GameController) listGamesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *repository.GameStatus
		if statusParam := c.Query("status"); statusParam != "" {
			s := repository.GameStatus(statusParam)
			status = &s
		}
		games, err := e.gameService.ListGames(status)
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

// @id GetGame
// @Description Fetches a game by id
// @Tags game
// @Produce json
// @Param game_id path int true "Game Id"
// @Success 200 {object} Game
// @Router /games/{game_id} [get]
func (e *GameController) getGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		game, err := e.gameService.GetGameById(gameId)
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toGameResponse(game))
	}
}

// @id UpdateGame
// @Description Updates a game
// @Tags game
// @Accept json
// @Produce json
// @Param game_id path int true "Game Id"
// @Param game body service.GameUpdate true "Game fields"
// @Success 200 {object} Game
// @Security BearerAuth
// @Router /games/{game_id} [patch]
func (e *GameController) updateGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		var update service.GameUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		game, err := e.gameService.UpdateGame(gameId, update, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toGameResponse(game))
	}
}

// @id DeleteGame
// @Description Deletes a game and its roster, stats and activity log
// @Tags game
// @Param game_id path int true "Game Id"
// @Success 204
// @Security BearerAuth
// @Router /games/{game_id} [delete]
func (e *GameController) deleteGameHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		if err := e.gameService.DeleteGame(gameId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

// @id SetGameLock
// @Description Locks or unlocks stat recording for a game
// @Tags game
// @Param game_id path int true "Game Id"
// @Success 200 {object} Game
// @Security BearerAuth
// @Router /games/{game_id}/lock [post]
func (e *GameController) setLockHandler(locked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		game, err := e.gameService.SetStatsLocked(gameId, locked, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toGameResponse(game))
	}
}

// @id AuditGameScores
// @Description Recomputes the game scores from stat events and reports drift
// @Tags game
// @Produce json
// @Param game_id path int true "Game Id"
// @Success 200 {object} service.ScoreAudit
// @Security BearerAuth
// @Router /games/{game_id}/audit [get]
func (e *GameController) auditScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		audit, err := e.statService.AuditScores(gameId)
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, audit)
	}
}

// @id RepairGameScores
// @Description Overwrites stored scores with recomputed values when drifted
// @Tags game
// @Produce json
// @Param game_id path int true "Game Id"
// @Success 200 {object} service.ScoreAudit
// @Security BearerAuth
// @Router /games/{game_id}/repair [post]
func (e *GameController) repairScoresHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		audit, err := e.statService.RepairScores(gameId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, audit)
	}
}

type Game struct {
	Id           int       `json:"id" binding:"required"`
	TeamName     string    `json:"team_name" binding:"required"`
	OpponentName string    `json:"opponent_name" binding:"required"`
	IsHome       bool      `json:"is_home" binding:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	HomeScore    int       `json:"home_score" binding:"required"`
	AwayScore    int       `json:"away_score" binding:"required"`
	Status       string    `json:"status" binding:"required"`
	StatsLocked  bool      `json:"stats_locked" binding:"required"`
	SharedToFeed bool      `json:"shared_to_feed" binding:"required"`
}

func toGameResponse(game *repository.Game) *Game {
	return &Game{
		Id:           game.Id,
		TeamName:     game.TeamName,
		OpponentName: game.OpponentName,
		IsHome:       game.IsHome,
		ScheduledAt:  game.ScheduledAt,
		HomeScore:    game.HomeScore,
		AwayScore:    game.AwayScore,
		Status:       string(game.Status),
		StatsLocked:  game.StatsLocked,
		SharedToFeed: game.SharedToFeed,
	}
}
