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

type TemplateService struct {
	templateRepo repository.TemplateRepository
}

type CreateTemplateInput struct {
	UserID uint
	Name   string
}

type UpdateTemplateInput struct {
	UserID     uint
	TemplateID uint
	Name       *string
}

func NewTemplateService(templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

func (s *TemplateService) ListTemplates(ctx context.Context, userID uint) ([]models.FormTemplate, error) {
	return s.templateRepo.List(ctx, userID)
}

func (s *TemplateService) GetTemplate(ctx context.Context, userID, templateID uint) (*models.FormTemplate, error) {
	return s.templateRepo.GetOwned(ctx, templateID, userID)
}

func (s *TemplateService) CreateTemplate(ctx context.Context, in CreateTemplateInput) (*models.FormTemplate, error) {
	name, err := validateTemplateName(in.Name)
	if err != nil {
		return nil, err
	}
	tpl := &models.FormTemplate{Name: name, CreatedBy: in.UserID}
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	observability.RecordWrite("template", "create")
	return tpl, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, in UpdateTemplateInput) (*models.FormTemplate, error) {
	tpl, err := s.templateRepo.GetOwned(ctx, in.TemplateID, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Name == nil {
		return tpl, nil
	}

	name, err := validateTemplateName(*in.Name)
	if err != nil {
		return nil, err
	}
	tpl.Name = name
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// DeleteTemplate removes the template with its fields, employees and values.
func (s *TemplateService) DeleteTemplate(ctx context.Context, userID, templateID uint) error {
	return s.templateRepo.DeleteOwned(ctx, templateID, userID)
}

func validateTemplateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", models.NewFieldValidationError(map[string]string{"name": "This field is required."})
	}
	if utf8.RuneCountInString(name) > models.MaxTemplateNameLength {
		return "", models.NewFieldValidationError(map[string]string{
			"name": fmt.Sprintf("Ensure this field has no more than %d characters.", models.MaxTemplateNameLength),
		})
	}
	return name, nil
}
