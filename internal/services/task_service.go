package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/notify"
	repository "timefiles.com/timefiles/internal/repositories"
	"timefiles.com/timefiles/internal/storage"
)

// TaskService covers task and tag CRUD: creation, rename, reparent with the
// acyclicity check, soft and hard deletion, tag membership.
type TaskService struct {
	store    *storage.Store
	notifier notify.Notifier
	now      func() int64
}

func NewTaskService(store *storage.Store, notifier notify.Notifier) *TaskService {
	return &TaskService{
		store:    store,
		notifier: notifier,
		now:      unixNow,
	}
}

// CreateTask creates an idle task, optionally under a parent.
func (s *TaskService) CreateTask(ctx context.Context, title string, parentID *string) (string, error) {
	cleanTitle, err := sanitizeTitle(title)
	if err != nil {
		return "", err
	}

	taskID := uuid.NewString()
	err = s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			if parentID != nil {
				if _, err := tasks.GetActive(*parentID); err != nil {
					return err
				}
			}
			return tasks.Create(&models.Task{
				ID:        taskID,
				ParentID:  parentID,
				Title:     cleanTitle,
				Status:    models.StatusIdle,
				CreatedAt: at,
			})
		})
	})
	if err != nil {
		return "", err
	}

	s.notifier.DataChanged()
	return taskID, nil
}

// RenameTask updates the title; renaming to the current title is a no-op.
func (s *TaskService) RenameTask(ctx context.Context, taskID, title string) error {
	cleanTitle, err := sanitizeTitle(title)
	if err != nil {
		return err
	}

	changed := false
	err = s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}
			if task.Title == cleanTitle {
				return nil
			}

			if err := tasks.UpdateTitle(taskID, cleanTitle); err != nil {
				return err
			}
			payload := eventlog.RenamePayload{From: task.Title, To: cleanTitle}
			if err := eventlog.Append(tx, taskID, models.EventRename, at, payload); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// ReparentTask moves the task under a new parent (or to the root when nil),
// refusing any request that would close a cycle.
func (s *TaskService) ReparentTask(ctx context.Context, taskID string, newParentID *string) error {
	if newParentID != nil && *newParentID == taskID {
		return apperr.CycleDetected("task %s cannot be its own parent", taskID)
	}

	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}
			if sameParent(task.ParentID, newParentID) {
				return nil
			}

			if newParentID != nil {
				if _, err := tasks.GetActive(*newParentID); err != nil {
					return err
				}
				// Walk upward from the candidate parent; meeting the task
				// being moved means the candidate is one of its descendants.
				cyclic, err := tasks.AncestorChainContains(*newParentID, taskID)
				if err != nil {
					return err
				}
				if cyclic {
					return apperr.CycleDetected("cannot reparent task %s under its own descendant %s",
						taskID, *newParentID)
				}
			}

			if err := tasks.UpdateParent(taskID, newParentID); err != nil {
				return err
			}
			payload := eventlog.ReparentPayload{From: task.ParentID, To: newParentID}
			if err := eventlog.Append(tx, taskID, models.EventReparent, at, payload); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// ArchiveTask soft-deletes the task and its whole subtree.
func (s *TaskService) ArchiveTask(ctx context.Context, taskID string) error {
	return s.DeleteTasks(ctx, []string{taskID}, false)
}

// DeleteTasks archives (or with hard=true purges) the subtrees of the given
// tasks. Archiving stops running or paused members first; hard deletion
// requires every member to be archived already and removes task, membership
// and event rows while retaining tag rows.
func (s *TaskService) DeleteTasks(ctx context.Context, taskIDs []string, hard bool) error {
	if len(taskIDs) == 0 {
		return apperr.InvalidInput("task_ids cannot be empty")
	}

	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			expanded, err := expandSubtrees(tasks, taskIDs)
			if err != nil {
				return err
			}
			if len(expanded) == 0 {
				return nil
			}

			if hard {
				if err := hardDeleteTasks(tx, tasks, expanded); err != nil {
					return err
				}
				changed = true
				return nil
			}

			// Stop active members before archiving so the mirror and the
			// event log agree that nothing archived is still ticking.
			for _, member := range expanded {
				task, err := tasks.Get(member)
				if err != nil {
					return err
				}
				if task.Status != models.StatusRunning && task.Status != models.StatusPaused {
					continue
				}
				if err := eventlog.Append(tx, member, models.EventStop, at, nil); err != nil {
					return err
				}
				if err := tasks.UpdateStatus(member, models.StatusStopped); err != nil {
					return err
				}
			}
			if err := tasks.Archive(expanded, at); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// AddTag attaches a tag, creating it on first use. Attaching a tag the task
// already carries changes nothing and emits nothing.
func (s *TaskService) AddTag(ctx context.Context, taskID, tagName string) error {
	cleanTag, err := sanitizeTag(tagName)
	if err != nil {
		return err
	}

	changed := false
	err = s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			if _, err := tasks.GetActive(taskID); err != nil {
				return err
			}

			tags := repository.NewTagRepository(tx)
			tag, err := tags.FindByName(cleanTag)
			if err != nil {
				return err
			}
			if tag == nil {
				tag = &models.Tag{ID: uuid.NewString(), Name: cleanTag, CreatedAt: at}
				if err := tags.Create(tag); err != nil {
					return err
				}
			}

			attached, err := tags.Attach(taskID, tag.ID, at)
			if err != nil {
				return err
			}
			if !attached {
				return nil
			}

			payload := eventlog.TagPayload{Tag: tag.Name}
			if err := eventlog.Append(tx, taskID, models.EventTagAdd, at, payload); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// RemoveTag detaches a tag; removing an absent association is a no-op.
func (s *TaskService) RemoveTag(ctx context.Context, taskID, tagName string) error {
	cleanTag, err := sanitizeTag(tagName)
	if err != nil {
		return err
	}

	changed := false
	err = s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			if _, err := tasks.GetActive(taskID); err != nil {
				return err
			}

			tags := repository.NewTagRepository(tx)
			tag, err := tags.FindByName(cleanTag)
			if err != nil {
				return err
			}
			if tag == nil {
				return nil
			}

			detached, err := tags.Detach(taskID, tag.ID)
			if err != nil {
				return err
			}
			if !detached {
				return nil
			}

			payload := eventlog.TagPayload{Tag: tag.Name}
			if err := eventlog.Append(tx, taskID, models.EventTagRemove, at, payload); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// expandSubtrees resolves each requested root to its full subtree, trimming
// blanks and deduplicating overlapping requests. Order is parents first.
func expandSubtrees(tasks *repository.TaskRepository, taskIDs []string) ([]string, error) {
	expanded := make([]string, 0, len(taskIDs))
	seen := make(map[string]struct{})

	for _, raw := range taskIDs {
		taskID := strings.TrimSpace(raw)
		if taskID == "" {
			continue
		}
		if _, done := seen[taskID]; done {
			continue
		}

		if _, err := tasks.Get(taskID); err != nil {
			return nil, err
		}
		subtree, err := tasks.Subtree(taskID)
		if err != nil {
			return nil, err
		}
		for _, member := range subtree {
			if _, done := seen[member]; done {
				// An earlier request named a descendant; move it behind
				// its ancestors.
				for i, id := range expanded {
					if id == member {
						expanded = append(expanded[:i], expanded[i+1:]...)
						break
					}
				}
			}
			seen[member] = struct{}{}
			expanded = append(expanded, member)
		}
	}

	return expanded, nil
}

func hardDeleteTasks(tx *gorm.DB, tasks *repository.TaskRepository, expanded []string) error {
	for _, member := range expanded {
		task, err := tasks.Get(member)
		if err != nil {
			return err
		}
		if !task.Archived() {
			return apperr.InvalidState("hard delete requires task %s to be archived first", member)
		}
	}

	suggestions := repository.NewSuggestionRepository(tx)
	if err := suggestions.DeleteForTasks(expanded); err != nil {
		return err
	}
	if err := eventlog.DeleteForTasks(tx, expanded); err != nil {
		return err
	}
	tags := repository.NewTagRepository(tx)
	if err := tags.DeleteAssociations(expanded); err != nil {
		return err
	}
	return tasks.HardDelete(expanded)
}
