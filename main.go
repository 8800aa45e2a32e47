package main

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/codyde/girlsgotgame-sub002/client"
	"github.com/codyde/girlsgotgame-sub002/config"
	"github.com/codyde/girlsgotgame-sub002/controller"
	"github.com/codyde/girlsgotgame-sub002/service"
	"github.com/codyde/girlsgotgame-sub002/utils/logger"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

// @title           Girls Got Game API
// @version         1.0
// @description     Roster, stat and live score backend for youth basketball games.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	t := time.Now()

	cfg := config.Env()
	db, err := config.InitDB(
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.DatabaseName,
	)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	err = r.SetTrustedProxies(nil)
	if err != nil {
		fmt.Println("Failed to set trusted proxies:", err)
		return
	}
	addLogger(r)
	addMetrics(r)
	addDocs(r)
	setCors(r)

	hub := service.NewGameHub()
	sinks := []service.Broadcaster{hub}
	if writer, err := config.GetGameUpdatesWriter(); err != nil {
		logger.Warnf("kafka relay disabled: %v", err)
	} else {
		sinks = append(sinks, service.NewKafkaBroadcaster(writer))
	}
	broadcaster := service.NewMultiBroadcaster(sinks...)

	var notifier service.FinalScoreNotifier
	discordClient, err := client.NewDiscordClient()
	if err != nil {
		logger.Warnf("discord announcements disabled: %v", err)
	} else if discordClient != nil {
		notifier = discordClient
	}

	cacheStore := persistence.NewInMemoryStore(60 * time.Second)
	controller.SetRoutes(r, db, broadcaster, hub, notifier, cacheStore)
	fmt.Println("Server started in", time.Since(t))
	err = r.Run(":8000")
	if err != nil {
		fmt.Println("Failed to start server:", err)
	}
}

func addLogger(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/metrics"},
		Skip: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/live/ws")
		},
	}))
}

func addMetrics(r *gin.Engine) {
	p := ginprometheus.NewPrometheus("gin")
	re := regexp.MustCompile(`\d+`)
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := strings.Split(c.Request.URL.String(), "?")[0]
		url = re.ReplaceAllString(url, "?")
		return strings.TrimPrefix(url, "/api")
	}
	p.MetricsPath = "/api/metrics"
	p.Use(r)
}

func addDocs(r *gin.Engine) {
	r.GET("/api/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

func setCors(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}
