package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"formstack/internal/models"
	"formstack/internal/observability"
	"formstack/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ExportSheetName  = "Employees"
	XLSXContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeLayout = "2006-01-02 15:04:05"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportFile is a rendered workbook ready to be sent as an attachment.
type ExportFile struct {
	Filename string
	Content  []byte
}

type ExportService struct {
	templateRepo repository.TemplateRepository
	fieldRepo    repository.FieldRepository
	employeeRepo repository.EmployeeRepository
}

func NewExportService(
	templateRepo repository.TemplateRepository,
	fieldRepo repository.FieldRepository,
	employeeRepo repository.EmployeeRepository,
) *ExportService {
	return &ExportService{
		templateRepo: templateRepo,
		fieldRepo:    fieldRepo,
		employeeRepo: employeeRepo,
	}
}

// ExportTemplate renders every employee of the template as one sheet: a header
// of ID, Created and the field labels in order, then one row per employee.
func (s *ExportService) ExportTemplate(ctx context.Context, userID, templateID uint) (_ *ExportFile, err error) {
	ctx, span := observability.StartSpan(ctx, "export_service", "template",
		attribute.Int64("template.id", int64(templateID)))
	defer func() { observability.EndSpan(span, err) }()

	tpl, err := s.templateRepo.GetOwned(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fieldRepo.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	employees, err := s.employeeRepo.ListByTemplate(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("export.rows", len(employees)))
	content, err := buildWorkbook(fields, employees)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(tpl.Name, "_"), "_")
	if name == "" {
		name = fmt.Sprintf("template_%d", tpl.ID)
	}
	return &ExportFile{
		Filename: name + "_employees.xlsx",
		Content:  content,
	}, nil
}

func buildWorkbook(fields []models.FormField, employees []models.Employee) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return nil, err
	}

	header := make([]interface{}, 0, len(fields)+2)
	header = append(header, "ID", "Created")
	for _, field := range fields {
		header = append(header, field.Label)
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(ExportSheetName, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, emp := range employees {
		byField := make(map[uint]string, len(emp.Data))
		for _, d := range emp.Data {
			byField[d.FieldID] = d.Value
		}

		row := make([]interface{}, 0, len(fields)+2)
		row = append(row, emp.ID, emp.CreatedAt.UTC().Format(exportTimeLayout))
		for _, field := range fields {
			row = append(row, byField[field.ID])
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
