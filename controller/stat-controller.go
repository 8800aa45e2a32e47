package controller

import (
	"strconv"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatController struct {
	statService *service.StatService
}

func NewStatController(db *gorm.DB, broadcaster service.Broadcaster) *StatController {
	return &StatController{
		statService: service.NewStatService(db, broadcaster),
	}
}

func setupStatController(db *gorm.DB, broadcaster service.Broadcaster) []RouteInfo {
	e := NewStatController(db, broadcaster)
	routes := []RouteInfo{
		{Method: "POST", Path: "/games/:game_id/stats", HandlerFunc: e.recordStatHandler(), Authenticated: true},
		{Method: "DELETE", Path: "/games/:game_id/stats/:stat_id", HandlerFunc: e.removeStatHandler(), Authenticated: true},
	}
	return routes
}

type StatEventCreate struct {
	RosterEntryId int    `json:"roster_entry_id" binding:"required"`
	StatType      string `json:"stat_type" binding:"required"`
	Value         int    `json:"value"`
	Quarter       *int   `json:"quarter"`
	TimeMinute    *int   `json:"time_minute"`
}

// @id RecordStat
// @Description Records a stat event for a roster entry and bumps the score for scoring types
// @Tags stat
// @Accept json
// @Produce json
// @Param game_id path int true "Game Id"
// @Param stat body StatEventCreate true "Stat event"
// @Success 201 {object} StatEvent
// @Security BearerAuth
// @Router /games/{game_id}/stats [post]
func (e *StatController) recordStatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		var create StatEventCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		stat, err := e.statService.RecordStat(service.RecordStatRequest{
			GameId:        gameId,
			RosterEntryId: create.RosterEntryId,
			StatType:      repository.StatType(create.StatType),
			Value:         create.Value,
			Quarter:       create.Quarter,
			TimeMinute:    create.TimeMinute,
		}, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(201, toStatEventResponse(stat))
	}
}

// @id RemoveStat
// @Description Removes a stat event and reverses its score contribution
// @Tags stat
// @Param game_id path int true "Game Id"
// @Param stat_id path int true "Stat Event Id"
// @Success 204
// @Security BearerAuth
// @Router /games/{game_id}/stats/{stat_id} [delete]
func (e *StatController) removeStatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		statId, err := strconv.Atoi(c.Param("stat_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid stat event id"})
			return
		}
		if err := e.statService.RemoveStat(gameId, statId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}
