package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"formstack/internal/models"
	"formstack/internal/observability"
	"formstack/internal/repository"
)

// MissingFieldsMessage is returned when a field is created without label or type.
const MissingFieldsMessage = "Missing required fields: label, field_type"

type FieldService struct {
	templateRepo repository.TemplateRepository
	fieldRepo    repository.FieldRepository
}

type CreateFieldInput struct {
	UserID     uint
	TemplateID uint
	Label      string
	FieldType  string
	Required   *bool
}

// UpdateFieldInput is a partial update; nil fields keep their value.
type UpdateFieldInput struct {
	UserID     uint
	TemplateID uint
	FieldID    uint
	Label      *string
	FieldType  *string
	Required   *bool
}

func NewFieldService(templateRepo repository.TemplateRepository, fieldRepo repository.FieldRepository) *FieldService {
	return &FieldService{templateRepo: templateRepo, fieldRepo: fieldRepo}
}

func (s *FieldService) ListFields(ctx context.Context, userID, templateID uint) ([]models.FormField, error) {
	if _, err := s.templateRepo.GetOwned(ctx, templateID, userID); err != nil {
		return nil, err
	}
	return s.fieldRepo.ListByTemplate(ctx, templateID)
}

func (s *FieldService) GetField(ctx context.Context, userID, templateID, fieldID uint) (*models.FormField, error) {
	if _, err := s.templateRepo.GetOwned(ctx, templateID, userID); err != nil {
		return nil, err
	}
	return s.fieldRepo.GetInTemplate(ctx, templateID, fieldID)
}

// CreateField appends a field to the template. Order is always assigned by the store.
func (s *FieldService) CreateField(ctx context.Context, in CreateFieldInput) (*models.FormField, error) {
	if _, err := s.templateRepo.GetOwned(ctx, in.TemplateID, in.UserID); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	fieldType := strings.TrimSpace(in.FieldType)
	if label == "" || fieldType == "" {
		return nil, models.NewValidationError(MissingFieldsMessage)
	}
	if err := validateLabel(label); err != nil {
		return nil, err
	}
	if err := validateFieldType(fieldType); err != nil {
		return nil, err
	}

	required := true
	if in.Required != nil {
		required = *in.Required
	}

	field := &models.FormField{
		FormTemplateID: in.TemplateID,
		Label:          label,
		FieldType:      models.FieldType(fieldType),
		Required:       required,
	}
	if err := s.fieldRepo.Create(ctx, field); err != nil {
		return nil, err
	}
	observability.RecordWrite("field", "create")
	return field, nil
}

func (s *FieldService) UpdateField(ctx context.Context, in UpdateFieldInput) (*models.FormField, error) {
	field, err := s.GetField(ctx, in.UserID, in.TemplateID, in.FieldID)
	if err != nil {
		return nil, err
	}

	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, models.NewFieldValidationError(map[string]string{"label": "This field may not be blank."})
		}
		if err := validateLabel(label); err != nil {
			return nil, err
		}
		field.Label = label
	}
	if in.FieldType != nil {
		if err := validateFieldType(*in.FieldType); err != nil {
			return nil, err
		}
		field.FieldType = models.FieldType(*in.FieldType)
	}
	if in.Required != nil {
		field.Required = *in.Required
	}

	if err := s.fieldRepo.Update(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *FieldService) DeleteField(ctx context.Context, userID, templateID, fieldID uint) error {
	if _, err := s.templateRepo.GetOwned(ctx, templateID, userID); err != nil {
		return err
	}
	return s.fieldRepo.DeleteInTemplate(ctx, templateID, fieldID)
}

// DeleteOwnedField deletes a field by id alone, checking ownership through its template.
func (s *FieldService) DeleteOwnedField(ctx context.Context, userID, fieldID uint) error {
	return s.fieldRepo.DeleteOwned(ctx, fieldID, userID)
}

// ReorderFields applies a batch of (id, order) pairs atomically.
func (s *FieldService) ReorderFields(ctx context.Context, userID uint, items []models.FieldOrder) error {
	if len(items) == 0 {
		return models.NewValidationError("Expected a non-empty list of {id, order} items")
	}
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if item.ID == 0 {
			return models.NewValidationError("Each item requires an id")
		}
		if item.Order < 0 {
			return models.NewValidationError(fmt.Sprintf("Order for field %d must be non-negative", item.ID))
		}
		if _, dup := seen[item.ID]; dup {
			return models.NewValidationError(fmt.Sprintf("Field %d appears more than once", item.ID))
		}
		seen[item.ID] = struct{}{}
	}
	if err := s.fieldRepo.Reorder(ctx, userID, items); err != nil {
		return err
	}
	observability.RecordWrite("field", "reorder")
	return nil
}

func validateLabel(label string) error {
	if utf8.RuneCountInString(label) > models.MaxFieldLabelLength {
		return models.NewFieldValidationError(map[string]string{
			"label": fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxFieldLabelLength),
		})
	}
	return nil
}

func validateFieldType(fieldType string) error {
	if !models.FieldType(fieldType).Valid() {
		return models.NewFieldValidationError(map[string]string{
			"field_type": fmt.Sprintf("%q is not a valid choice.", fieldType),
		})
	}
	return nil
}
