package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "timefiles.com/timefiles/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.GET("/ping", h.Ping)
	e.GET("/overview", h.GetOverview)

	e.POST("/tasks", h.CreateTask)
	e.POST("/tasks/delete", h.DeleteTasks)
	e.POST("/tasks/:id/rename", h.RenameTask)
	e.POST("/tasks/:id/reparent", h.ReparentTask)
	e.POST("/tasks/:id/archive", h.ArchiveTask)

	e.POST("/tasks/:id/start", h.StartTask)
	e.POST("/tasks/:id/pause", h.PauseTask)
	e.POST("/tasks/:id/resume", h.ResumeTask)
	e.POST("/tasks/:id/stop", h.StopTask)
	e.POST("/tasks/:id/subtasks", h.InsertSubtask)

	e.POST("/tasks/:id/tags", h.AddTag)
	e.DELETE("/tasks/:id/tags/:tag", h.RemoveTag)

	e.POST("/rest-suggestions/:id/respond", h.RespondRestSuggestion)
}
