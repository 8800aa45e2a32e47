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

type ManualPlayerController struct {
	migrationService *service.MigrationService
}

func NewManualPlayerController(db *gorm.DB) *ManualPlayerController {
	return &ManualPlayerController{
		migrationService: service.NewMigrationService(db),
	}
}

func setupManualPlayerController(db *gorm.DB) []RouteInfo {
	e := NewManualPlayerController(db)
	basePath := "/manual-players"
	adminOnly := []repository.Role{repository.RoleAdmin}
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.listManualPlayersHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "POST", Path: "", HandlerFunc: e.createManualPlayerHandler(), Authenticated: true},
		{Method: "POST", Path: "/:manual_id/link", HandlerFunc: e.linkHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "POST", Path: "/:manual_id/unlink", HandlerFunc: e.unlinkHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "POST", Path: "/:manual_id/migrate", HandlerFunc: e.migrateHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "DELETE", Path: "/:manual_id", HandlerFunc: e.deleteMigratedHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "DELETE", Path: "/:manual_id/force", HandlerFunc: e.forceDeleteHandler(), Authenticated: true, RequiredRoles: adminOnly},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

func manualIdParam(c *gin.Context) (int, bool) {
	manualId, err := strconv.Atoi(c.Param("manual_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid manual player id"})
		return 0, false
	}
	return manualId, true
}

type ManualPlayerCreate struct {
	Name         string `json:"name" binding:"required"`
	JerseyNumber *int   `json:"jersey_number"`
	ParentUserId *int   `json:"parent_user_id"`
}

// @id CreateManualPlayer
// @Description Creates a manual player record for someone without an account
// @Tags manual-player
// @Accept json
// @Produce json
// @Param player body ManualPlayerCreate true "Manual player"
// @Success 201 {object} ManualPlayer
// @Security BearerAuth
// @Router /manual-players [post]
func (e *ManualPlayerController) createManualPlayerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var create ManualPlayerCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		player, err := e.migrationService.CreateManualPlayer(create.Name, create.JerseyNumber, create.ParentUserId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(201, toManualPlayerResponse(player))
	}
}

// @id ListManualPlayers
// @Description Fetches all manual player records with their linkage state
// @Tags manual-player
// @Produce json
// @Success 200 {array} ManualPlayer
// @Security BearerAuth
// @Router /manual-players [get]
func (e *ManualPlayerController) listManualPlayersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		players, err := e.migrationService.ListManualPlayers(getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		response := make([]*ManualPlayer, 0, len(players))
		for _, player := range players {
			response = append(response, toManualPlayerResponse(player))
		}
		c.JSON(200, response)
	}
}

type ManualPlayerLink struct {
	UserId int `json:"user_id" binding:"required"`
}

// @id LinkManualPlayer
// @Description Links a manual player to a registered account ahead of migration
// @Tags manual-player
// @Accept json
// @Produce json
// @Param manual_id path int true "Manual Player Id"
// @Param link body ManualPlayerLink true "Link target"
// @Success 200 {object} ManualPlayer
// @Security BearerAuth
// @Router /manual-players/{manual_id}/link [post]
func (e *ManualPlayerController) linkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		manualId, ok := manualIdParam(c)
		if !ok {
			return
		}
		var link ManualPlayerLink
		if err := c.BindJSON(&link); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		player, err := e.migrationService.Link(manualId, link.UserId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toManualPlayerResponse(player))
	}
}

// @id UnlinkManualPlayer
// @Description Removes the registered-account linkage from a manual player
// @Tags manual-player
// @Produce json
// @Param manual_id path int true "Manual Player Id"
// @Success 200 {object} ManualPlayer
// @Security BearerAuth
// @Router /manual-players/{manual_id}/unlink [post]
func (e *ManualPlayerController) unlinkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		manualId, ok := manualIdParam(c)
		if !ok {
			return
		}
		player, err := e.migrationService.Unlink(manualId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toManualPlayerResponse(player))
	}
}

// @id MigrateManualPlayer
// @Description Reattaches a manual player's roster history onto the linked account
// @Tags manual-player
// @Produce json
// @Param manual_id path int true "Manual Player Id"
// @Success 200 {object} service.MigrationReport
// @Security BearerAuth
// @Router /manual-players/{manual_id}/migrate [post]
func (e *ManualPlayerController) migrateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		manualId, ok := manualIdParam(c)
		if !ok {
			return
		}
		report, err := e.migrationService.Migrate(manualId, getPrincipal(c))
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, report)
	}
}

// @id DeleteManualPlayer
// @Description Deletes a manual player once its migration has verifiably landed
// @Tags manual-player
// @Param manual_id path int true "Manual Player Id"
// @Success 204
// @Security BearerAuth
// @Router /manual-players/{manual_id} [delete]
func (e *ManualPlayerController) deleteMigratedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		manualId, ok := manualIdParam(c)
		if !ok {
			return
		}
		if err := e.migrationService.DeleteMigrated(manualId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

// @id ForceDeleteManualPlayer
// @Description Deletes an unlinked manual player that has no roster history
// @Tags manual-player
// @Param manual_id path int true "Manual Player Id"
// @Success 204
// @Security BearerAuth
// @Router /manual-players/{manual_id}/force [delete]
func (e *ManualPlayerController) forceDeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		manualId, ok := manualIdParam(c)
		if !ok {
			return
		}
		if err := e.migrationService.ForceDelete(manualId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

type ManualPlayer struct {
	Id           int       `json:"id" binding:"required"`
	Name         string    `json:"name" binding:"required"`
	JerseyNumber *int      `json:"jersey_number"`
	ParentUserId *int      `json:"parent_user_id"`
	LinkedUserId *int      `json:"linked_user_id"`
	CreatedBy    int       `json:"created_by" binding:"required"`
	CreatedAt    time.Time `json:"created_at" binding:"required"`
}

func toManualPlayerResponse(player *repository.ManualPlayer) *ManualPlayer {
	return &ManualPlayer{
		Id:           player.Id,
		Name:         player.Name,
		JerseyNumber: player.JerseyNumber,
		ParentUserId: player.ParentUserId,
		LinkedUserId: player.LinkedUserId,
		CreatedBy:    player.CreatedBy,
		CreatedAt:    player.CreatedAt,
	}
}
