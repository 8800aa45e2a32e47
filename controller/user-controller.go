package controller

import (
	"strconv"

	"github.com/codyde/girlsgotgame-sub002/app_error"
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{
		userService: service.NewUserService(db),
	}
}

func setupUserController(db *gorm.DB) []RouteInfo {
	e := NewUserController(db)
	adminOnly := []repository.Role{repository.RoleAdmin}
	routes := []RouteInfo{
		{Method: "GET", Path: "/users/me", HandlerFunc: e.getSelfHandler(), Authenticated: true},
		{Method: "PATCH", Path: "/users/me", HandlerFunc: e.updateSelfHandler(), Authenticated: true},
		{Method: "GET", Path: "/users/:user_id/children", HandlerFunc: e.getChildrenHandler(), Authenticated: true},
		{Method: "POST", Path: "/users/:user_id/children", HandlerFunc: e.addChildHandler(), Authenticated: true, RequiredRoles: adminOnly},
		{Method: "DELETE", Path: "/users/:user_id/children/:child_id", HandlerFunc: e.removeChildHandler(), Authenticated: true, RequiredRoles: adminOnly},
	}
	return routes
}

func userIdParam(c *gin.Context) (int, bool) {
	userId, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return userId, true
}

// @id GetSelf
// @Description Fetches the authenticated user
// @Tags user
// @Produce json
// @Success 200 {object} User
// @Security BearerAuth
// @Router /users/me [get]
func (e *UserController) getSelfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, toUserResponse(getPrincipal(c)))
	}
}

type UserUpdate struct {
	JerseyNumber *int `json:"jersey_number"`
}

// @id UpdateSelf
// @Description Updates the authenticated user's own profile fields
// @Tags user
// @Accept json
// @Produce json
// @Param user body UserUpdate true "Fields"
// @Success 200 {object} User
// @Security BearerAuth
// @Router /users/me [patch]
func (e *UserController) updateSelfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update UserUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		principal := getPrincipal(c)
		if update.JerseyNumber != nil {
			principal.JerseyNumber = update.JerseyNumber
		}
		user, err := e.userService.SaveUser(principal)
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

// @id GetChildren
// @Description Fetches the registered children of a parent user
// @Tags user
// @Produce json
// @Param user_id path int true "User Id"
// @Success 200 {array} User
// @Security BearerAuth
// @Router /users/{user_id}/children [get]
func (e *UserController) getChildrenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := userIdParam(c)
		if !ok {
			return
		}
		principal := getPrincipal(c)
		if userId != principal.Id && !principal.IsAdmin() {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}
		children, err := e.userService.GetChildren(userId)
		if err != nil {
			app_error.JSON(c, err)
			return
		}
		response := make([]*User, 0, len(children))
		for _, child := range children {
			response = append(response, toUserResponse(child))
		}
		c.JSON(200, response)
	}
}

type ChildCreate struct {
	ChildUserId int `json:"child_user_id" binding:"required"`
}

// @id AddChild
// @Description Registers a parent-child relation between two users
// @Tags user
// @Accept json
// @Param user_id path int true "Parent User Id"
// @Param child body ChildCreate true "Child"
// @Success 204
// @Security BearerAuth
// @Router /users/{user_id}/children [post]
func (e *UserController) addChildHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := userIdParam(c)
		if !ok {
			return
		}
		var create ChildCreate
		if err := c.BindJSON(&create); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.userService.AddChild(userId, create.ChildUserId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

// @id RemoveChild
// @Description Removes a parent-child relation
// @Tags user
// @Param user_id path int true "Parent User Id"
// @Param child_id path int true "Child User Id"
// @Success 204
// @Security BearerAuth
// @Router /users/{user_id}/children/{child_id} [delete]
func (e *UserController) removeChildHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := userIdParam(c)
		if !ok {
			return
		}
		childId, err := strconv.Atoi(c.Param("child_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid child user id"})
			return
		}
		if err := e.userService.RemoveChild(userId, childId, getPrincipal(c)); err != nil {
			app_error.JSON(c, err)
			return
		}
		c.Status(204)
	}
}

type User struct {
	Id           int    `json:"id" binding:"required"`
	Email        string `json:"email" binding:"required"`
	DisplayName  string `json:"display_name" binding:"required"`
	Role         string `json:"role" binding:"required"`
	JerseyNumber *int   `json:"jersey_number"`
}

func toUserResponse(user *repository.User) *User {
	return &User{
		Id:           user.Id,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		JerseyNumber: user.JerseyNumber,
	}
}
