package repository

import (
	"errors"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/models"
)

type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// SupersedePending marks every pending suggestion ignored. Called right
// before inserting a new one so at most a single pending row ever exists.
func (r *SuggestionRepository) SupersedePending(at int64) error {
	err := r.db.Model(&models.RestSuggestion{}).
		Where("status = ?", models.SuggestionPending).
		Updates(map[string]any{
			"status":       models.SuggestionIgnored,
			"responded_at": at,
		}).Error
	if err != nil {
		return apperr.Storage(err, "supersede pending suggestions")
	}
	return nil
}

func (r *SuggestionRepository) Create(suggestion *models.RestSuggestion) error {
	if err := r.db.Create(suggestion).Error; err != nil {
		return apperr.Storage(err, "create rest suggestion")
	}
	return nil
}

// LatestPending returns the pending suggestion, nil when none exists.
func (r *SuggestionRepository) LatestPending() (*models.RestSuggestion, error) {
	var suggestion models.RestSuggestion
	err := r.db.
		Where("status = ?", models.SuggestionPending).
		Order("created_at desc, id desc").
		First(&suggestion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "load pending rest suggestion")
	}
	return &suggestion, nil
}

// Respond transitions a pending suggestion, reporting whether a row changed.
// Responding again to an already-settled suggestion is a no-op; an unknown id
// is NotFound.
func (r *SuggestionRepository) Respond(id int64, status models.SuggestionStatus, at int64) (bool, error) {
	result := r.db.Model(&models.RestSuggestion{}).
		Where("id = ? AND status = ?", id, models.SuggestionPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": at,
		})
	if result.Error != nil {
		return false, apperr.Storage(result.Error, "respond to rest suggestion %d", id)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	err := r.db.Model(&models.RestSuggestion{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, apperr.Storage(err, "look up rest suggestion %d", id)
	}
	if count == 0 {
		return false, apperr.NotFound("rest suggestion %d not found", id)
	}
	return false, nil
}

// DeleteForTasks removes suggestions anchored at hard-deleted tasks.
func (r *SuggestionRepository) DeleteForTasks(taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	err := r.db.Where("task_id IN ?", taskIDs).Delete(&models.RestSuggestion{}).Error
	if err != nil {
		return apperr.Storage(err, "delete suggestions for %d tasks", len(taskIDs))
	}
	return nil
}
