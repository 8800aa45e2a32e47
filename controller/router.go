package controller

import (
	"github.com/codyde/girlsgotgame-sub002/repository"
	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RequiredRoles []repository.Role
}

func SetRoutes(r *gin.Engine, db *gorm.DB, broadcaster service.Broadcaster, hub *service.GameHub, notifier service.FinalScoreNotifier, cacheStore persistence.CacheStore) {
	routes := make([]RouteInfo, 0)
	routes = append(routes, setupGameController(db, broadcaster, notifier, cacheStore)...)
	routes = append(routes, setupRosterController(db, broadcaster)...)
	routes = append(routes, setupStatController(db, broadcaster)...)
	routes = append(routes, setupActivityController(db)...)
	routes = append(routes, setupManualPlayerController(db)...)
	routes = append(routes, setupUserController(db)...)
	routes = append(routes, setupLiveController(db, hub)...)

	authMiddleware := AuthMiddleware(db)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, authMiddleware, RequireRoles(route.RequiredRoles))
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		r.Handle(route.Method, "/api"+route.Path, handlerfuncs...)
	}
}

// AuthMiddleware resolves the authenticated principal from the bearer token
// issued by the identity provider and stores it on the context.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	userService := service.NewUserService(db)
	return func(c *gin.Context) {
		user, err := userService.GetUserFromAuthHeader(c)
		if err != nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		c.Set("principal", user)
		c.Next()
	}
}

func RequireRoles(roles []repository.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(roles) == 0 {
			c.Next()
			return
		}
		principal := getPrincipal(c)
		if principal == nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(403, gin.H{"error": "Unauthorized"})
		c.Abort()
	}
}

func getPrincipal(c *gin.Context) *repository.User {
	value, ok := c.Get("principal")
	if !ok {
		return nil
	}
	principal, ok := value.(*repository.User)
	if !ok {
		return nil
	}
	return principal
}
