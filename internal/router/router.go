package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pomorix/internal/handler"
	"pomorix/internal/middleware"
)

// Handlers groups the endpoint handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	Sessions *handler.SessionHandler
	Settings *handler.SettingsHandler
	Tasks    *handler.TaskHandler
	Stats    *handler.StatsHandler
	Profile  *handler.ProfileHandler
}

func New(
	tokens middleware.TokenParser,
	handlers Handlers,
	cors middleware.CORSConfig,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(cors))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	global := api.Group("/global")
	global.GET("/feed", handlers.Stats.Feed)
	global.GET("/online-count", handlers.Stats.OnlineCount)

	private := api.Group("")
	private.Use(middleware.Auth(tokens))

	pomodoro := private.Group("/pomodoro")
	pomodoro.POST("/start", handlers.Sessions.Start)
	pomodoro.GET("/current", handlers.Sessions.Current)
	pomodoro.POST("/pause", handlers.Sessions.Pause)
	pomodoro.POST("/resume", handlers.Sessions.Resume)
	pomodoro.POST("/complete", handlers.Sessions.Complete)

	private.GET("/settings", handlers.Settings.Get)
	private.PATCH("/settings", handlers.Settings.Update)
	private.POST("/settings/reset", handlers.Settings.Reset)

	private.GET("/tasks", handlers.Tasks.List)
	private.POST("/tasks", handlers.Tasks.Create)
	private.PATCH("/tasks/:id", handlers.Tasks.Update)
	private.DELETE("/tasks/:id", handlers.Tasks.Delete)
	private.PATCH("/tasks/:id/toggle-active", handlers.Tasks.ToggleActive)

	private.GET("/streak", handlers.Stats.Streak)
	private.GET("/badges", handlers.Stats.Badges)
	private.GET("/badges/me", handlers.Stats.MyBadges)

	private.GET("/user/profile", handlers.Profile.Get)
	private.PATCH("/user/profile", handlers.Profile.Update)
	private.POST("/bug-reports", handlers.Profile.ReportBug)

	return engine
}
