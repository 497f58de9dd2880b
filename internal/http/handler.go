package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	dto "timefiles.com/timefiles/internal/data_models"
	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/http/validators"
	"timefiles.com/timefiles/internal/services"
)

// Handler projects the command surface over HTTP for out-of-process
// collaborators. It binds, shape-validates, delegates to the services and
// maps their error kinds onto status codes; no timing logic lives here.
type Handler struct {
	tasks    *services.TaskService
	timer    *services.TimerService
	rest     *services.RestService
	overview *services.OverviewService
}

func NewHandler(
	tasks *services.TaskService,
	timer *services.TimerService,
	rest *services.RestService,
	overview *services.OverviewService,
) *Handler {
	return &Handler{
		tasks:    tasks,
		timer:    timer,
		rest:     rest,
		overview: overview,
	}
}

func (h *Handler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, h.overview.Ping())
}

func (h *Handler) GetOverview(c echo.Context) error {
	snapshot, err := h.overview.GetOverview(c.Request().Context(), c.QueryParam("range"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	taskID, err := h.tasks.CreateTask(c.Request().Context(), req.Title, req.ParentID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"task_id": taskID})
}

func (h *Handler) RenameTask(c echo.Context) error {
	var req dto.RenameTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateRenameTaskRequest(&req); err != nil {
		return err
	}

	if err := h.tasks.RenameTask(c.Request().Context(), c.Param("id"), req.Title); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReparentTask(c echo.Context) error {
	var req dto.ReparentTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if err := h.tasks.ReparentTask(c.Request().Context(), c.Param("id"), req.NewParentID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ArchiveTask(c echo.Context) error {
	if err := h.tasks.ArchiveTask(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteTasks(c echo.Context) error {
	var req dto.DeleteTasksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateDeleteTasksRequest(&req); err != nil {
		return err
	}

	if err := h.tasks.DeleteTasks(c.Request().Context(), req.TaskIDs, req.Hard); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StartTask(c echo.Context) error {
	if err := h.timer.Start(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PauseTask(c echo.Context) error {
	if err := h.timer.Pause(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ResumeTask(c echo.Context) error {
	if err := h.timer.Resume(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StopTask(c echo.Context) error {
	if err := h.timer.Stop(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) InsertSubtask(c echo.Context) error {
	var req dto.InsertSubtaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateInsertSubtaskRequest(&req); err != nil {
		return err
	}

	childID, err := h.timer.InsertSubtaskAndStart(c.Request().Context(), c.Param("id"), req.Title)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"task_id": childID})
}

func (h *Handler) AddTag(c echo.Context) error {
	var req dto.TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateTagRequest(&req); err != nil {
		return err
	}

	if err := h.tasks.AddTag(c.Request().Context(), c.Param("id"), req.Tag); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RemoveTag(c echo.Context) error {
	if err := h.tasks.RemoveTag(c.Request().Context(), c.Param("id"), c.Param("tag")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RespondRestSuggestion(c echo.Context) error {
	suggestionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "suggestion id must be an integer")
	}

	var req dto.RespondSuggestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if err := h.rest.Respond(c.Request().Context(), suggestionID, req.Accept); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mapError translates a core failure into the stable kind + message shape
// collaborators consume.
func mapError(err error) error {
	var appErr *apperr.Exception
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(appErr.StatusCode, echo.Map{
			"kind":    string(appErr.Kind),
			"message": appErr.Message,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
