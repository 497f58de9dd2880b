package repository

import (
	"errors"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/models"
)

// TaskRepository wraps task-table access over a borrowed handle, usually the
// transaction of the command in flight. It holds no state of its own.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(task *models.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return apperr.Storage(err, "create task %s", task.ID)
	}
	return nil
}

// Get returns the task regardless of archive state.
func (r *TaskRepository) Get(id string) (*models.Task, error) {
	var task models.Task
	err := r.db.First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("task %s not found", id)
	}
	if err != nil {
		return nil, apperr.Storage(err, "load task %s", id)
	}
	return &task, nil
}

// GetActive returns the task and fails with Archived when it has been
// soft-deleted.
func (r *TaskRepository) GetActive(id string) (*models.Task, error) {
	task, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if task.Archived() {
		return nil, apperr.Archived("task %s is archived", id)
	}
	return task, nil
}

func (r *TaskRepository) UpdateStatus(id string, status models.TaskStatus) error {
	err := r.db.Model(&models.Task{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return apperr.Storage(err, "update status of task %s", id)
	}
	return nil
}

func (r *TaskRepository) UpdateTitle(id, title string) error {
	err := r.db.Model(&models.Task{}).Where("id = ?", id).Update("title", title).Error
	if err != nil {
		return apperr.Storage(err, "rename task %s", id)
	}
	return nil
}

func (r *TaskRepository) UpdateParent(id string, parentID *string) error {
	err := r.db.Model(&models.Task{}).Where("id = ?", id).Update("parent_id", parentID).Error
	if err != nil {
		return apperr.Storage(err, "reparent task %s", id)
	}
	return nil
}

// FindRunning returns the single active-context task, nil when everything is
// idle, paused or stopped.
func (r *TaskRepository) FindRunning() (*models.Task, error) {
	var task models.Task
	err := r.db.
		Where("status = ? AND archived_at IS NULL", models.StatusRunning).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "find running task")
	}
	return &task, nil
}

// ListActive returns all non-archived tasks ordered by creation.
func (r *TaskRepository) ListActive() ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("archived_at IS NULL").
		Order("created_at asc, id asc").
		Find(&tasks).Error
	if err != nil {
		return nil, apperr.Storage(err, "list tasks")
	}
	return tasks, nil
}

// Subtree returns id plus every transitive descendant, parents before
// children, archived rows included. A revisited node means the adjacency
// list is corrupt.
func (r *TaskRepository) Subtree(id string) ([]string, error) {
	result := make([]string, 0, 8)
	visited := make(map[string]struct{})
	queue := []string{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, seen := visited[current]; seen {
			return nil, apperr.Internal("cycle detected while traversing subtree at task %s", current)
		}
		visited[current] = struct{}{}
		result = append(result, current)

		var childIDs []string
		err := r.db.Model(&models.Task{}).
			Where("parent_id = ?", current).
			Order("created_at asc, id asc").
			Pluck("id", &childIDs).Error
		if err != nil {
			return nil, apperr.Storage(err, "list children of task %s", current)
		}
		queue = append(queue, childIDs...)
	}

	return result, nil
}

// AncestorChainContains walks upward from startID and reports whether
// blockedID appears on the chain (startID itself included). Used by the
// reparent cycle check: attaching under one's own descendant is refused.
func (r *TaskRepository) AncestorChainContains(startID, blockedID string) (bool, error) {
	visited := make(map[string]struct{})
	current := &startID

	for current != nil {
		if _, seen := visited[*current]; seen {
			return false, apperr.Internal("existing cycle involving task %s", *current)
		}
		visited[*current] = struct{}{}

		if *current == blockedID {
			return true, nil
		}

		task, err := r.Get(*current)
		if err != nil {
			return false, err
		}
		current = task.ParentID
	}

	return false, nil
}

// ParentMap materializes the parent adjacency of all non-archived tasks.
func (r *TaskRepository) ParentMap() (map[string]*string, error) {
	tasks, err := r.ListActive()
	if err != nil {
		return nil, err
	}
	parents := make(map[string]*string, len(tasks))
	for _, task := range tasks {
		parents[task.ID] = task.ParentID
	}
	return parents, nil
}

// Archive soft-deletes the given rows; already-archived rows keep their
// original archived_at.
func (r *TaskRepository) Archive(ids []string, at int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&models.Task{}).
		Where("id IN ? AND archived_at IS NULL", ids).
		Update("archived_at", at).Error
	if err != nil {
		return apperr.Storage(err, "archive %d tasks", len(ids))
	}
	return nil
}

// HardDelete removes task rows, children before parents so the parent_id
// reference never dangles mid-transaction.
func (r *TaskRepository) HardDelete(idsParentFirst []string) error {
	for i := len(idsParentFirst) - 1; i >= 0; i-- {
		err := r.db.Delete(&models.Task{}, "id = ?", idsParentFirst[i]).Error
		if err != nil {
			return apperr.Storage(err, "delete task %s", idsParentFirst[i])
		}
	}
	return nil
}
