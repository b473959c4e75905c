package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"formstack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageSize is the fixed number of employees per listing page.
const PageSize = 10

// EmployeeFilter narrows an employee listing. A nil TemplateID means every template.
type EmployeeFilter struct {
	TemplateID *uint
	Search     string
	Page       int
}

// Page is one page of an employee listing.
type Page struct {
	Count    int64             `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	NumPages int               `json:"num_pages"`
	Results  []models.Employee `json:"results"`
}

// searchClause matches the id as a substring or any stored value case-insensitively.
// EXISTS keeps an employee with several matching values from appearing twice.
const searchClause = `(CAST(employees.id AS TEXT) LIKE ? ESCAPE '\' OR EXISTS (` +
	`SELECT 1 FROM employee_data ed WHERE ed.employee_id = employees.id AND LOWER(ed.value) LIKE ? ESCAPE '\'))`

// EmployeeRepository defines persistence operations for employees and their values.
type EmployeeRepository interface {
	List(ctx context.Context, userID uint, filter EmployeeFilter) (*Page, error)
	GetOwned(ctx context.Context, id, userID uint) (*models.Employee, error)
	GetDetail(ctx context.Context, id, userID uint) (*models.EmployeeDetail, error)
	Create(ctx context.Context, emp *models.Employee, values map[uint]string) error
	Update(ctx context.Context, emp *models.Employee, values map[uint]string) error
	SetValue(ctx context.Context, employeeID, fieldID uint, value string) (*models.EmployeeData, error)
	DeleteOwned(ctx context.Context, id, userID uint) error
	ListByTemplate(ctx context.Context, templateID, userID uint) ([]models.Employee, error)
	Count(ctx context.Context, userID uint) (int64, error)
	Recent(ctx context.Context, userID uint, limit int) ([]models.Employee, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository returns a new EmployeeRepository implementation.
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) List(ctx context.Context, userID uint, filter EmployeeFilter) (*Page, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{}).Where("employees.created_by = ?", userID)
	if filter.TemplateID != nil {
		q = q.Where("employees.form_template_id = ?", *filter.TemplateID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		q = q.Where(searchClause, containsPattern(term), containsPattern(strings.ToLower(term)))
	}
	q = q.Session(&gorm.Session{})

	page := &Page{
		Page:     filter.Page,
		PageSize: PageSize,
		Results:  make([]models.Employee, 0),
	}
	if page.Page < 1 {
		page.Page = 1
	}

	if err := q.Count(&page.Count).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	page.NumPages = int((page.Count + PageSize - 1) / PageSize)
	if page.NumPages < 1 {
		page.NumPages = 1
	}
	if page.Page > page.NumPages {
		return page, nil
	}

	if err := q.
		Order("employees.created_at DESC").
		Order("employees.id DESC").
		Limit(PageSize).
		Offset((page.Page - 1) * PageSize).
		Find(&page.Results).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return page, nil
}

func (r *employeeRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Employee, error) {
	var emp models.Employee
	if err := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, userID).
		First(&emp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Employee")
		}
		return nil, models.NewInternalError(err)
	}
	return &emp, nil
}

// GetDetail returns the employee with its values annotated by field label and
// type, in field order.
func (r *employeeRepository) GetDetail(ctx context.Context, id, userID uint) (*models.EmployeeDetail, error) {
	emp, err := r.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	values := make([]models.EmployeeFieldValue, 0)
	if err := r.db.WithContext(ctx).
		Table("employee_data AS ed").
		Select("ed.id, ed.employee_id, ed.field_id, f.label AS field_label, f.field_type, ed.value").
		Joins("JOIN form_fields f ON f.id = ed.field_id").
		Where("ed.employee_id = ?", emp.ID).
		Order(`f."order" ASC`).
		Order("f.id ASC").
		Scan(&values).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return &models.EmployeeDetail{Employee: *emp, FieldsData: values}, nil
}

// Create inserts the employee and one value row per entry in values.
func (r *employeeRepository) Create(ctx context.Context, emp *models.Employee, values map[uint]string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(emp).Error; err != nil {
			return err
		}
		rows := dataRows(emp.ID, values)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Duplicate value for employee field", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update upserts the given values, removes those set to "", and touches updated_at.
func (r *employeeRepository) Update(ctx context.Context, emp *models.Employee, values map[uint]string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fieldID := range sortedFieldIDs(values) {
			if err := upsertValue(tx, emp.ID, fieldID, values[fieldID]); err != nil {
				return err
			}
		}
		return tx.Model(emp).Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// SetValue writes one value in place. An empty value deletes the row and
// returns nil.
func (r *employeeRepository) SetValue(ctx context.Context, employeeID, fieldID uint, value string) (*models.EmployeeData, error) {
	var row *models.EmployeeData
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertValue(tx, employeeID, fieldID, value); err != nil {
			return err
		}
		if err := tx.Model(&models.Employee{}).Where("id = ?", employeeID).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		row = &models.EmployeeData{}
		return tx.Where("employee_id = ? AND field_id = ?", employeeID, fieldID).Take(row).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return row, nil
}

func upsertValue(tx *gorm.DB, employeeID, fieldID uint, value string) error {
	if value == "" {
		return tx.Where("employee_id = ? AND field_id = ?", employeeID, fieldID).
			Delete(&models.EmployeeData{}).Error
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "field_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.EmployeeData{
		EmployeeID: employeeID,
		FieldID:    fieldID,
		Value:      value,
	}).Error
}

// DeleteOwned removes the employee; its values cascade.
func (r *employeeRepository) DeleteOwned(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, userID).
		Delete(&models.Employee{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Employee")
	}
	return nil
}

// ListByTemplate returns every employee of a template with values preloaded, oldest first.
func (r *employeeRepository) ListByTemplate(ctx context.Context, templateID, userID uint) ([]models.Employee, error) {
	employees := make([]models.Employee, 0)
	if err := r.db.WithContext(ctx).
		Preload("Data").
		Where("form_template_id = ? AND created_by = ?", templateID, userID).
		Order("id ASC").
		Find(&employees).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return employees, nil
}

func (r *employeeRepository) Count(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Employee{}).Where("created_by = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *employeeRepository) Recent(ctx context.Context, userID uint, limit int) ([]models.Employee, error) {
	if limit <= 0 {
		limit = 5
	}
	employees := make([]models.Employee, 0, limit)
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&employees).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return employees, nil
}

func dataRows(employeeID uint, values map[uint]string) []models.EmployeeData {
	rows := make([]models.EmployeeData, 0, len(values))
	for _, fieldID := range sortedFieldIDs(values) {
		if values[fieldID] == "" {
			continue
		}
		rows = append(rows, models.EmployeeData{
			EmployeeID: employeeID,
			FieldID:    fieldID,
			Value:      values[fieldID],
		})
	}
	return rows
}

func sortedFieldIDs(values map[uint]string) []uint {
	ids := make([]uint, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
