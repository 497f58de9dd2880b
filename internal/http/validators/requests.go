package validators

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	dto "timefiles.com/timefiles/internal/data_models"
)

// Shape-level checks only; the core services own the semantic validation.

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	return nil
}

func ValidateRenameTaskRequest(r *dto.RenameTaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	return nil
}

func ValidateInsertSubtaskRequest(r *dto.InsertSubtaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	return nil
}

func ValidateDeleteTasksRequest(r *dto.DeleteTasksRequest) error {
	if len(r.TaskIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "task_ids is required")
	}
	return nil
}

func ValidateTagRequest(r *dto.TagRequest) error {
	if strings.TrimSpace(r.Tag) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tag is required")
	}
	return nil
}
