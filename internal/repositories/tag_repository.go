package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/models"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// FindByName matches case-insensitively and returns nil when the tag does
// not exist.
func (r *TagRepository) FindByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("lower(name) = lower(?)", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "look up tag %q", name)
	}
	return &tag, nil
}

func (r *TagRepository) Create(tag *models.Tag) error {
	if err := r.db.Create(tag).Error; err != nil {
		return apperr.Storage(err, "create tag %q", tag.Name)
	}
	return nil
}

// Attach associates the tag with the task, reporting whether the membership
// actually changed. Re-attaching is a no-op.
func (r *TagRepository) Attach(taskID, tagID string, at int64) (bool, error) {
	association := models.TaskTag{TaskID: taskID, TagID: tagID, CreatedAt: at}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&association)
	if result.Error != nil {
		return false, apperr.Storage(result.Error, "attach tag %s to task %s", tagID, taskID)
	}
	return result.RowsAffected > 0, nil
}

// Detach removes the association, reporting whether a row was deleted.
func (r *TagRepository) Detach(taskID, tagID string) (bool, error) {
	result := r.db.Where("task_id = ? AND tag_id = ?", taskID, tagID).Delete(&models.TaskTag{})
	if result.Error != nil {
		return false, apperr.Storage(result.Error, "detach tag %s from task %s", tagID, taskID)
	}
	return result.RowsAffected > 0, nil
}

// DeleteAssociations drops tag memberships for hard-deleted tasks; the tag
// rows themselves are retained.
func (r *TagRepository) DeleteAssociations(taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	err := r.db.Where("task_id IN ?", taskIDs).Delete(&models.TaskTag{}).Error
	if err != nil {
		return apperr.Storage(err, "delete tag associations for %d tasks", len(taskIDs))
	}
	return nil
}

// NamesByTask returns the tag names of every non-archived task, sorted by
// name within each task.
func (r *TagRepository) NamesByTask() (map[string][]string, error) {
	var rows []struct {
		TaskID string
		Name   string
	}
	err := r.db.Raw(`
		SELECT tt.task_id AS task_id, tg.name AS name
		FROM task_tags tt
		INNER JOIN tags tg ON tg.id = tt.tag_id
		INNER JOIN tasks t ON t.id = tt.task_id
		WHERE t.archived_at IS NULL
		ORDER BY tg.name ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage(err, "list tag memberships")
	}

	names := make(map[string][]string, len(rows))
	for _, row := range rows {
		names[row.TaskID] = append(names[row.TaskID], row.Name)
	}
	return names, nil
}

// NamesFor returns one task's tag names sorted by name.
func (r *TagRepository) NamesFor(taskID string) ([]string, error) {
	var names []string
	err := r.db.Raw(`
		SELECT tg.name
		FROM task_tags tt
		INNER JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY tg.name ASC
	`, taskID).Scan(&names).Error
	if err != nil {
		return nil, apperr.Storage(err, "list tags of task %s", taskID)
	}
	return names, nil
}
