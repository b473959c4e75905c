package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"formstack/internal/models"
	"formstack/internal/observability"
	"formstack/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type EmployeeService struct {
	templateRepo repository.TemplateRepository
	fieldRepo    repository.FieldRepository
	employeeRepo repository.EmployeeRepository
}

// ListEmployeesInput mirrors the listing query string. Template is "", "all" or an id.
type ListEmployeesInput struct {
	UserID   uint
	Template string
	Search   string
	Page     int
}

// CreateEmployeeInput carries values keyed by field id. With EnforceRequired set,
// every required field of the template must receive a non-empty value.
type CreateEmployeeInput struct {
	UserID          uint
	TemplateID      uint
	Values          map[string]string
	EnforceRequired bool
}

type UpdateEmployeeInput struct {
	UserID     uint
	EmployeeID uint
	Values     map[string]string
}

type SetValueInput struct {
	UserID     uint
	EmployeeID uint
	FieldID    uint
	Value      string
}

func NewEmployeeService(
	templateRepo repository.TemplateRepository,
	fieldRepo repository.FieldRepository,
	employeeRepo repository.EmployeeRepository,
) *EmployeeService {
	return &EmployeeService{
		templateRepo: templateRepo,
		fieldRepo:    fieldRepo,
		employeeRepo: employeeRepo,
	}
}

// ParseTemplateFilter turns the template query value into a filter. "" and
// "all" mean no filter.
func ParseTemplateFilter(raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, models.NewValidationError("Invalid template filter")
	}
	v := uint(id)
	return &v, nil
}

func (s *EmployeeService) ListEmployees(ctx context.Context, in ListEmployeesInput) (*repository.Page, error) {
	templateID, err := ParseTemplateFilter(in.Template)
	if err != nil {
		return nil, err
	}
	return s.employeeRepo.List(ctx, in.UserID, repository.EmployeeFilter{
		TemplateID: templateID,
		Search:     in.Search,
		Page:       in.Page,
	})
}

func (s *EmployeeService) GetEmployee(ctx context.Context, userID, employeeID uint) (*models.EmployeeDetail, error) {
	return s.employeeRepo.GetDetail(ctx, employeeID, userID)
}

// CreateEmployee binds a new employee to a template the caller owns and stores
// its non-empty values.
func (s *EmployeeService) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (_ *models.EmployeeDetail, err error) {
	ctx, span := observability.StartSpan(ctx, "employee_service", "create",
		attribute.Int64("template.id", int64(in.TemplateID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.TemplateID == 0 {
		return nil, models.NewFieldValidationError(map[string]string{"form_template": "This field is required."})
	}
	if _, err := s.templateRepo.GetOwned(ctx, in.TemplateID, in.UserID); err != nil {
		return nil, err
	}
	fields, err := s.fieldRepo.ListByTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	values, err := resolveValues(fields, in.Values, false)
	if err != nil {
		return nil, err
	}
	if in.EnforceRequired {
		if err := checkRequired(fields, values); err != nil {
			return nil, err
		}
	}

	emp := &models.Employee{FormTemplateID: in.TemplateID, CreatedBy: in.UserID}
	if err := s.employeeRepo.Create(ctx, emp, values); err != nil {
		return nil, err
	}
	observability.RecordWrite("employee", "create")
	return s.employeeRepo.GetDetail(ctx, emp.ID, in.UserID)
}

// UpdateEmployee applies value changes; an empty value removes the stored one.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (_ *models.EmployeeDetail, err error) {
	ctx, span := observability.StartSpan(ctx, "employee_service", "update",
		attribute.Int64("employee.id", int64(in.EmployeeID)))
	defer func() { observability.EndSpan(span, err) }()

	emp, err := s.employeeRepo.GetOwned(ctx, in.EmployeeID, in.UserID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fieldRepo.ListByTemplate(ctx, emp.FormTemplateID)
	if err != nil {
		return nil, err
	}

	values, err := resolveValues(fields, in.Values, true)
	if err != nil {
		return nil, err
	}

	if err := s.employeeRepo.Update(ctx, emp, values); err != nil {
		return nil, err
	}
	observability.RecordWrite("employee", "update")
	return s.employeeRepo.GetDetail(ctx, emp.ID, in.UserID)
}

// SetValue writes a single value. The field must belong to the employee's template.
func (s *EmployeeService) SetValue(ctx context.Context, in SetValueInput) (*models.EmployeeData, error) {
	emp, err := s.employeeRepo.GetOwned(ctx, in.EmployeeID, in.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.fieldRepo.GetInTemplate(ctx, emp.FormTemplateID, in.FieldID); err != nil {
		return nil, err
	}
	data, err := s.employeeRepo.SetValue(ctx, emp.ID, in.FieldID, strings.TrimSpace(in.Value))
	if err != nil {
		return nil, err
	}
	observability.RecordWrite("employee_data", "set")
	return data, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, userID, employeeID uint) error {
	if err := s.employeeRepo.DeleteOwned(ctx, employeeID, userID); err != nil {
		return err
	}
	observability.RecordWrite("employee", "delete")
	return nil
}

// resolveValues maps "12" or "field_12" keys to field ids of the template.
// Values are trimmed; blanks are dropped unless keepBlank is set. Keys naming
// fields outside the template are rejected.
func resolveValues(fields []models.FormField, raw map[string]string, keepBlank bool) (map[uint]string, error) {
	known := make(map[uint]struct{}, len(fields))
	for _, f := range fields {
		known[f.ID] = struct{}{}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[uint]string, len(raw))
	for _, key := range keys {
		id, err := strconv.ParseUint(strings.TrimPrefix(key, "field_"), 10, 32)
		if err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("Invalid field id %q", key))
		}
		if _, ok := known[uint(id)]; !ok {
			return nil, models.NewValidationError(fmt.Sprintf("Field %d does not belong to this template", id))
		}
		if v := strings.TrimSpace(raw[key]); v != "" || keepBlank {
			values[uint(id)] = v
		}
	}
	return values, nil
}

func checkRequired(fields []models.FormField, values map[uint]string) error {
	errs := map[string]string{}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if _, ok := values[f.ID]; !ok {
			errs[fmt.Sprintf("field_%d", f.ID)] = f.Label + " is required."
		}
	}
	if len(errs) > 0 {
		return models.NewFieldValidationError(errs)
	}
	return nil
}
