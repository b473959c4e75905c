package repository

import (
	"context"
	"errors"

	"formstack/internal/models"

	"gorm.io/gorm"
)

// TemplateRepository defines persistence operations for form templates.
// Every lookup is scoped to the owning user.
type TemplateRepository interface {
	List(ctx context.Context, userID uint) ([]models.FormTemplate, error)
	GetOwned(ctx context.Context, id, userID uint) (*models.FormTemplate, error)
	Create(ctx context.Context, tpl *models.FormTemplate) error
	Update(ctx context.Context, tpl *models.FormTemplate) error
	DeleteOwned(ctx context.Context, id, userID uint) error
	Count(ctx context.Context, userID uint) (int64, error)
	Recent(ctx context.Context, userID uint, limit int) ([]models.FormTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository returns a new TemplateRepository implementation.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) List(ctx context.Context, userID uint) ([]models.FormTemplate, error) {
	templates := make([]models.FormTemplate, 0)
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&templates).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return templates, nil
}

func (r *templateRepository) GetOwned(ctx context.Context, id, userID uint) (*models.FormTemplate, error) {
	var tpl models.FormTemplate
	if err := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, userID).
		First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Template")
		}
		return nil, models.NewInternalError(err)
	}
	return &tpl, nil
}

func (r *templateRepository) Create(ctx context.Context, tpl *models.FormTemplate) error {
	if err := r.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *models.FormTemplate) error {
	res := r.db.WithContext(ctx).
		Model(tpl).
		Where("created_by = ?", tpl.CreatedBy).
		Select("name", "updated_at").
		Updates(tpl)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Template")
	}
	return nil
}

// DeleteOwned removes the template. Fields, employees and their values go with it
// through ON DELETE CASCADE.
func (r *templateRepository) DeleteOwned(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, userID).
		Delete(&models.FormTemplate{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Template")
	}
	return nil
}

func (r *templateRepository) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.FormTemplate{}).Where("created_by = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *templateRepository) Recent(ctx context.Context, userID uint, limit int) ([]models.FormTemplate, error) {
	if limit <= 0 {
		limit = 5
	}
	templates := make([]models.FormTemplate, 0, limit)
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&templates).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return templates, nil
}
