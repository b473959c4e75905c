package service

import (
	"context"
	"errors"
	"testing"

	"formstack/internal/models"
	"formstack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn              func(context.Context, uint) (*models.User, error)
	getByEmailFn           func(context.Context, string) (*models.User, error)
	getByUsernameFn        func(context.Context, string) (*models.User, error)
	createFn               func(context.Context, *models.User) error
	updateFn               func(context.Context, *models.User) error
	updatePasswordFn       func(context.Context, uint, string) (uint, error)
	getCredentialVersionFn func(context.Context, uint) (uint, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) (uint, error) {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) GetCredentialVersion(ctx context.Context, id uint) (uint, error) {
	return s.getCredentialVersionFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:              func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:           func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:               func(_ context.Context, _ *models.User) error { return nil },
		updateFn:               func(_ context.Context, _ *models.User) error { return nil },
		updatePasswordFn:       func(_ context.Context, _ uint, _ string) (uint, error) { return 2, nil },
		getCredentialVersionFn: func(_ context.Context, _ uint) (uint, error) { return 1, nil },
	}
}

// templateRepoStub is a stub for repository.TemplateRepository.
type templateRepoStub struct {
	listFn        func(context.Context, uint) ([]models.FormTemplate, error)
	getOwnedFn    func(context.Context, uint, uint) (*models.FormTemplate, error)
	createFn      func(context.Context, *models.FormTemplate) error
	updateFn      func(context.Context, *models.FormTemplate) error
	deleteOwnedFn func(context.Context, uint, uint) error
	countFn       func(context.Context, uint) (int64, error)
	recentFn      func(context.Context, uint, int) ([]models.FormTemplate, error)
}

func (s *templateRepoStub) List(ctx context.Context, userID uint) ([]models.FormTemplate, error) {
	return s.listFn(ctx, userID)
}
func (s *templateRepoStub) GetOwned(ctx context.Context, id, userID uint) (*models.FormTemplate, error) {
	return s.getOwnedFn(ctx, id, userID)
}
func (s *templateRepoStub) Create(ctx context.Context, tpl *models.FormTemplate) error {
	return s.createFn(ctx, tpl)
}
func (s *templateRepoStub) Update(ctx context.Context, tpl *models.FormTemplate) error {
	return s.updateFn(ctx, tpl)
}
func (s *templateRepoStub) DeleteOwned(ctx context.Context, id, userID uint) error {
	return s.deleteOwnedFn(ctx, id, userID)
}
func (s *templateRepoStub) Count(ctx context.Context, userID uint) (int64, error) {
	return s.countFn(ctx, userID)
}
func (s *templateRepoStub) Recent(ctx context.Context, userID uint, limit int) ([]models.FormTemplate, error) {
	return s.recentFn(ctx, userID, limit)
}

// ownedTemplates returns a stub where only templates of owner exist.
func ownedTemplates(owner uint) *templateRepoStub {
	return &templateRepoStub{
		listFn: func(_ context.Context, _ uint) ([]models.FormTemplate, error) { return nil, nil },
		getOwnedFn: func(_ context.Context, id, userID uint) (*models.FormTemplate, error) {
			if userID != owner {
				return nil, models.NewNotFoundError("Template")
			}
			return &models.FormTemplate{ID: id, Name: "Template", CreatedBy: owner}, nil
		},
		createFn:      func(_ context.Context, _ *models.FormTemplate) error { return nil },
		updateFn:      func(_ context.Context, _ *models.FormTemplate) error { return nil },
		deleteOwnedFn: func(_ context.Context, _, _ uint) error { return nil },
		countFn:       func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		recentFn:      func(_ context.Context, _ uint, _ int) ([]models.FormTemplate, error) { return nil, nil },
	}
}

// fieldRepoStub is a stub for repository.FieldRepository.
type fieldRepoStub struct {
	listByTemplateFn   func(context.Context, uint) ([]models.FormField, error)
	getInTemplateFn    func(context.Context, uint, uint) (*models.FormField, error)
	createFn           func(context.Context, *models.FormField) error
	updateFn           func(context.Context, *models.FormField) error
	deleteInTemplateFn func(context.Context, uint, uint) error
	deleteOwnedFn      func(context.Context, uint, uint) error
	reorderFn          func(context.Context, uint, []models.FieldOrder) error
}

func (s *fieldRepoStub) ListByTemplate(ctx context.Context, templateID uint) ([]models.FormField, error) {
	return s.listByTemplateFn(ctx, templateID)
}
func (s *fieldRepoStub) GetInTemplate(ctx context.Context, templateID, id uint) (*models.FormField, error) {
	return s.getInTemplateFn(ctx, templateID, id)
}
func (s *fieldRepoStub) Create(ctx context.Context, field *models.FormField) error {
	return s.createFn(ctx, field)
}
func (s *fieldRepoStub) Update(ctx context.Context, field *models.FormField) error {
	return s.updateFn(ctx, field)
}
func (s *fieldRepoStub) DeleteInTemplate(ctx context.Context, templateID, id uint) error {
	return s.deleteInTemplateFn(ctx, templateID, id)
}
func (s *fieldRepoStub) DeleteOwned(ctx context.Context, id, userID uint) error {
	return s.deleteOwnedFn(ctx, id, userID)
}
func (s *fieldRepoStub) Reorder(ctx context.Context, userID uint, items []models.FieldOrder) error {
	return s.reorderFn(ctx, userID, items)
}

// fieldsOf returns a stub serving a fixed field list for every template.
func fieldsOf(fields ...models.FormField) *fieldRepoStub {
	return &fieldRepoStub{
		listByTemplateFn: func(_ context.Context, _ uint) ([]models.FormField, error) { return fields, nil },
		getInTemplateFn: func(_ context.Context, templateID, id uint) (*models.FormField, error) {
			for i := range fields {
				if fields[i].ID == id && fields[i].FormTemplateID == templateID {
					f := fields[i]
					return &f, nil
				}
			}
			return nil, models.NewNotFoundError("Field")
		},
		createFn:           func(_ context.Context, _ *models.FormField) error { return nil },
		updateFn:           func(_ context.Context, _ *models.FormField) error { return nil },
		deleteInTemplateFn: func(_ context.Context, _, _ uint) error { return nil },
		deleteOwnedFn:      func(_ context.Context, _, _ uint) error { return nil },
		reorderFn:          func(_ context.Context, _ uint, _ []models.FieldOrder) error { return nil },
	}
}

// employeeRepoStub is a stub for repository.EmployeeRepository.
type employeeRepoStub struct {
	listFn           func(context.Context, uint, repository.EmployeeFilter) (*repository.Page, error)
	getOwnedFn       func(context.Context, uint, uint) (*models.Employee, error)
	getDetailFn      func(context.Context, uint, uint) (*models.EmployeeDetail, error)
	createFn         func(context.Context, *models.Employee, map[uint]string) error
	updateFn         func(context.Context, *models.Employee, map[uint]string) error
	setValueFn       func(context.Context, uint, uint, string) (*models.EmployeeData, error)
	deleteOwnedFn    func(context.Context, uint, uint) error
	listByTemplateFn func(context.Context, uint, uint) ([]models.Employee, error)
	countFn          func(context.Context, uint) (int64, error)
	recentFn         func(context.Context, uint, int) ([]models.Employee, error)
}

func (s *employeeRepoStub) List(ctx context.Context, userID uint, filter repository.EmployeeFilter) (*repository.Page, error) {
	return s.listFn(ctx, userID, filter)
}
func (s *employeeRepoStub) GetOwned(ctx context.Context, id, userID uint) (*models.Employee, error) {
	return s.getOwnedFn(ctx, id, userID)
}
func (s *employeeRepoStub) GetDetail(ctx context.Context, id, userID uint) (*models.EmployeeDetail, error) {
	return s.getDetailFn(ctx, id, userID)
}
func (s *employeeRepoStub) Create(ctx context.Context, emp *models.Employee, values map[uint]string) error {
	return s.createFn(ctx, emp, values)
}
func (s *employeeRepoStub) Update(ctx context.Context, emp *models.Employee, values map[uint]string) error {
	return s.updateFn(ctx, emp, values)
}
func (s *employeeRepoStub) SetValue(ctx context.Context, employeeID, fieldID uint, value string) (*models.EmployeeData, error) {
	return s.setValueFn(ctx, employeeID, fieldID, value)
}
func (s *employeeRepoStub) DeleteOwned(ctx context.Context, id, userID uint) error {
	return s.deleteOwnedFn(ctx, id, userID)
}
func (s *employeeRepoStub) ListByTemplate(ctx context.Context, templateID, userID uint) ([]models.Employee, error) {
	return s.listByTemplateFn(ctx, templateID, userID)
}
func (s *employeeRepoStub) Count(ctx context.Context, userID uint) (int64, error) {
	return s.countFn(ctx, userID)
}
func (s *employeeRepoStub) Recent(ctx context.Context, userID uint, limit int) ([]models.Employee, error) {
	return s.recentFn(ctx, userID, limit)
}

func noopEmployeeRepo() *employeeRepoStub {
	return &employeeRepoStub{
		listFn: func(_ context.Context, _ uint, _ repository.EmployeeFilter) (*repository.Page, error) {
			return &repository.Page{Page: 1, PageSize: repository.PageSize, NumPages: 1}, nil
		},
		getOwnedFn: func(_ context.Context, id, userID uint) (*models.Employee, error) {
			return &models.Employee{ID: id, CreatedBy: userID, FormTemplateID: 1}, nil
		},
		getDetailFn: func(_ context.Context, id, userID uint) (*models.EmployeeDetail, error) {
			return &models.EmployeeDetail{Employee: models.Employee{ID: id, CreatedBy: userID}}, nil
		},
		createFn:         func(_ context.Context, _ *models.Employee, _ map[uint]string) error { return nil },
		updateFn:         func(_ context.Context, _ *models.Employee, _ map[uint]string) error { return nil },
		setValueFn:       func(_ context.Context, _, _ uint, _ string) (*models.EmployeeData, error) { return nil, nil },
		deleteOwnedFn:    func(_ context.Context, _, _ uint) error { return nil },
		listByTemplateFn: func(_ context.Context, _, _ uint) ([]models.Employee, error) { return nil, nil },
		countFn:          func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		recentFn:         func(_ context.Context, _ uint, _ int) ([]models.Employee, error) { return nil, nil },
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppErrorCode(t, err, models.CodeValidation)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}
