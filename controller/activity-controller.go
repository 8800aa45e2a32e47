package controller

import (
	"time"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ActivityController struct {
	activityService *service.ActivityService
}

func NewActivityController(db *gorm.DB) *ActivityController {
	return &ActivityController{
		activityService: service.NewActivityService(db),
	}
}

func setupActivityController(db *gorm.DB) []RouteInfo {
	e := NewActivityController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/games/:game_id/activities", HandlerFunc: e.listActivitiesHandler(), Authenticated: true},
	}
	return routes
}

// @id ListActivities
// @Description Fetches the activity log for a game in insertion order
// @Tags activity
// @Produce json
// @Param game_id path int true "Game Id"
// @Success 200 {array} ActivityLogEntry
// @Security BearerAuth
// @Router /games/{game_id}/activities [get]
func (e *ActivityController) listActivitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		activities, err := e.activityService.ListActivities(gameId)
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		response := make([]*ActivityLogEntry, 0, len(activities))
		for _, activity := range activities {
			response = append(response, toActivityResponse(activity))
		}
		c.JSON(200, response)
	}
}

type ActivityLogEntry struct {
	Id          int                         `json:"id" binding:"required"`
	GameId      int                         `json:"game_id" binding:"required"`
	Type        string                      `json:"type" binding:"required"`
	Description string                      `json:"description" binding:"required"`
	Metadata    repository.ActivityMetadata `json:"metadata"`
	CreatedBy   int                         `json:"created_by" binding:"required"`
	CreatedAt   time.Time                   `json:"created_at" binding:"required"`
}

func toActivityResponse(activity *repository.ActivityLogEntry) *ActivityLogEntry {
	return &ActivityLogEntry{
		Id:          activity.Id,
		GameId:      activity.GameId,
		Type:        string(activity.Type),
		Description: activity.Description,
		Metadata:    activity.Metadata,
		CreatedBy:   activity.CreatedBy,
		CreatedAt:   activity.CreatedAt,
	}
}
