package repository

import (
	"context"
	"errors"

	"formstack/internal/models"

	"gorm.io/gorm"
)

// FieldRepository defines persistence operations for template fields.
type FieldRepository interface {
	ListByTemplate(ctx context.Context, templateID uint) ([]models.FormField, error)
	GetInTemplate(ctx context.Context, templateID, id uint) (*models.FormField, error)
	Create(ctx context.Context, field *models.FormField) error
	Update(ctx context.Context, field *models.FormField) error
	DeleteInTemplate(ctx context.Context, templateID, id uint) error
	DeleteOwned(ctx context.Context, id, userID uint) error
	Reorder(ctx context.Context, userID uint, items []models.FieldOrder) error
}

type fieldRepository struct {
	db *gorm.DB
}

// NewFieldRepository returns a new FieldRepository implementation.
func NewFieldRepository(db *gorm.DB) FieldRepository {
	return &fieldRepository{db: db}
}

func (r *fieldRepository) ListByTemplate(ctx context.Context, templateID uint) ([]models.FormField, error) {
	fields := make([]models.FormField, 0)
	if err := r.db.WithContext(ctx).
		Where("form_template_id = ?", templateID).
		Order(`"order" ASC`).
		Order("id ASC").
		Find(&fields).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return fields, nil
}

func (r *fieldRepository) GetInTemplate(ctx context.Context, templateID, id uint) (*models.FormField, error) {
	var field models.FormField
	if err := r.db.WithContext(ctx).
		Where("id = ? AND form_template_id = ?", id, templateID).
		First(&field).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Field")
		}
		return nil, models.NewInternalError(err)
	}
	return &field, nil
}

// Create appends the field after the template's current last field. The order
// is read and the row inserted in one transaction.
func (r *fieldRepository) Create(ctx context.Context, field *models.FormField) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.FormField{}).
			Select(`COALESCE(MAX("order"), -1) + 1`).
			Where("form_template_id = ?", field.FormTemplateID).
			Scan(&next).Error; err != nil {
			return err
		}
		field.Order = next
		return tx.Create(field).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes label, type and required. Order only moves through Reorder.
func (r *fieldRepository) Update(ctx context.Context, field *models.FormField) error {
	res := r.db.WithContext(ctx).
		Model(field).
		Where("form_template_id = ?", field.FormTemplateID).
		Select("label", "field_type", "required").
		Updates(field)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Field")
	}
	return nil
}

func (r *fieldRepository) DeleteInTemplate(ctx context.Context, templateID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND form_template_id = ?", id, templateID).
		Delete(&models.FormField{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Field")
	}
	return nil
}

// DeleteOwned deletes a field reachable through a template owned by userID in a
// single statement.
func (r *fieldRepository) DeleteOwned(ctx context.Context, id, userID uint) error {
	db := r.db.WithContext(ctx)
	res := db.
		Where("id = ? AND form_template_id IN (?)", id, ownedTemplateIDs(db, userID)).
		Delete(&models.FormField{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Field")
	}
	return nil
}

// Reorder applies every (id, order) pair or none of them. All ids must belong
// to templates owned by userID.
func (r *fieldRepository) Reorder(ctx context.Context, userID uint, items []models.FieldOrder) error {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []uint
		if err := tx.Model(&models.FormField{}).
			Where("id IN ? AND form_template_id IN (?)", ids, ownedTemplateIDs(tx, userID)).
			Pluck("id", &owned).Error; err != nil {
			return err
		}

		found := make(map[uint]struct{}, len(owned))
		for _, id := range owned {
			found[id] = struct{}{}
		}
		for _, item := range items {
			if _, ok := found[item.ID]; !ok {
				return models.NewNotFoundErrorWithID("Field", item.ID)
			}
		}

		for _, item := range items {
			if err := tx.Model(&models.FormField{}).
				Where("id = ?", item.ID).
				Update("order", item.Order).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}
