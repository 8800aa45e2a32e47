package controller

import (
	"encoding/json"
	"net/http"

	"github.com/codyde/girlsgotgame-sub002/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type LiveController struct {
	gameService *service.GameService
	hub         *service.GameHub
}

func NewLiveController(db *gorm.DB, hub *service.GameHub) *LiveController {
	return &LiveController{
		gameService: service.NewGameService(db, service.NoopBroadcaster{}, nil),
		hub:         hub,
	}
}

func setupLiveController(db *gorm.DB, hub *service.GameHub) []RouteInfo {
	e := NewLiveController(db, hub)
	routes := []RouteInfo{
		{Method: "GET", Path: "/games/:game_id/live/ws", HandlerFunc: e.webSocketHandler()},
	}
	return routes
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

// @id LiveWebSocket
// @Description Websocket for live game updates. The current score is sent on connect, then score, activity and game changes stream in as they commit.
// @Tags live
// @Param game_id path int true "Game Id"
// @Success 200 {object} service.ScoreUpdatePayload
// @Router /games/{game_id}/live/ws [get]
func (e *LiveController) webSocketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		gameId, ok := gameIdParam(c)
		if !ok {
			return
		}
		game, err := e.gameService.GetGameById(gameId)
		if err != nil {
			http.NotFound(c.Writer, c.Request)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			http.NotFound(c.Writer, c.Request)
			return
		}
		defer conn.Close()

		// Send the current score to the new subscriber so it never has to
		// reconstruct state from the delta stream alone.
		snapshot := service.ScoreUpdatePayload{
			GameId:    game.Id,
			HomeScore: game.HomeScore,
			AwayScore: game.AwayScore,
		}
		serialized, err := json.Marshal(snapshot)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
			return
		}

		e.hub.Register(gameId, conn)
		defer e.hub.Unregister(gameId, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
