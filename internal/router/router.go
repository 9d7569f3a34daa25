package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tictask/backend/internal/handler"
	"tictask/backend/internal/middleware"
)

func New(
	timerHandler *handler.TimerHandler,
	sessionHandler *handler.SessionHandler,
	taskHandler *handler.TaskHandler,
	eventsHandler *handler.EventsHandler,
	corsOrigins []string,
	logger zerolog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	timer := api.Group("/timer")
	timer.GET("/state", timerHandler.GetState)
	timer.POST("/start", timerHandler.Start)
	timer.POST("/pause", timerHandler.Pause)
	timer.POST("/reset", timerHandler.Reset)
	timer.POST("/break/start", timerHandler.StartBreak)
	timer.POST("/break/skip", timerHandler.SkipBreak)
	timer.POST("/count/reset", timerHandler.ResetCount)
	timer.GET("/config", timerHandler.GetConfig)
	timer.PUT("/config", timerHandler.UpdateConfig)
	timer.GET("/events", eventsHandler.Stream)

	api.GET("/sessions", sessionHandler.List)

	tasks := api.Group("/tasks")
	tasks.POST("", taskHandler.Create)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PATCH("/:id", taskHandler.Update)

	return engine
}
