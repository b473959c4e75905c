package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"formstack/internal/models"
	"formstack/internal/service"

	"github.com/gofiber/fiber/v2"
)

// fieldKeyPrefix marks per-field inputs of the page-style employee form.
const fieldKeyPrefix = "field_"

// ListEmployees handles GET /employees/
// @Summary List employees
// @Description Owner-scoped, newest first, 10 per page. search matches the id as a
// @Description substring or any stored value case-insensitively.
// @Tags employees
// @Produce json
// @Param template query string false "Template id or 'all'"
// @Param search query string false "Search term"
// @Param page query int false "1-indexed page"
// @Success 200 {object} repository.Page
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/ [get]
func (s *Server) ListEmployees(c *fiber.Ctx) error {
	page, err := s.employeeService.ListEmployees(c.UserContext(), service.ListEmployeesInput{
		UserID:   currentUserID(c),
		Template: c.Query("template"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
	})
	return respond(c, fiber.StatusOK, page, err)
}

// CreateEmployee handles POST /employees/
// @Summary Create an employee
// @Tags employees
// @Accept json
// @Produce json
// @Param request body object{form_template=int,values=map[string]string} true "Employee"
// @Success 201 {object} models.EmployeeDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/ [post]
func (s *Server) CreateEmployee(c *fiber.Ctx) error {
	var req struct {
		FormTemplate uint           `json:"form_template"`
		Values       map[string]any `json:"values"`
	}
	if err := decodeBody(c, &req); err != nil {
		return nil
	}

	detail, err := s.employeeService.CreateEmployee(c.UserContext(), service.CreateEmployeeInput{
		UserID:     currentUserID(c),
		TemplateID: req.FormTemplate,
		Values:     stringValues(req.Values),
	})
	return respond(c, fiber.StatusCreated, detail, err)
}

// CreateEmployeeFromForm handles POST /forms/:template_id/employees/
// @Summary Create an employee from the template's form
// @Description Accepts field_<id> inputs (form-encoded, multipart or JSON). Required
// @Description fields must be filled.
// @Tags employees
// @Accept x-www-form-urlencoded
// @Produce json
// @Param template_id path int true "Template ID"
// @Success 201 {object} models.EmployeeDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/employees/ [post]
func (s *Server) CreateEmployeeFromForm(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}

	values, err := formFieldValues(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	detail, err := s.employeeService.CreateEmployee(c.UserContext(), service.CreateEmployeeInput{
		UserID:          currentUserID(c),
		TemplateID:      templateID,
		Values:          values,
		EnforceRequired: true,
	})
	return respond(c, fiber.StatusCreated, detail, err)
}

// GetEmployee handles GET /employees/:id/
// @Summary Retrieve an employee with its values
// @Tags employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} models.EmployeeDetail
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id}/ [get]
func (s *Server) GetEmployee(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.employeeService.GetEmployee(c.UserContext(), currentUserID(c), id)
	return respond(c, fiber.StatusOK, detail, err)
}

// UpdateEmployee handles PUT /employees/:id/
// @Summary Update employee values
// @Description An empty value removes the stored one. The template cannot be changed.
// @Tags employees
// @Accept json
// @Produce json
// @Param id path int true "Employee ID"
// @Param request body object{values=map[string]string} true "Values"
// @Success 200 {object} models.EmployeeDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id}/ [put]
func (s *Server) UpdateEmployee(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Values map[string]any `json:"values"`
	}
	if err := decodeBody(c, &req, "form_template"); err != nil {
		return nil
	}

	detail, err := s.employeeService.UpdateEmployee(c.UserContext(), service.UpdateEmployeeInput{
		UserID:     currentUserID(c),
		EmployeeID: id,
		Values:     stringValues(req.Values),
	})
	return respond(c, fiber.StatusOK, detail, err)
}

// SetEmployeeValue handles PUT /employees/:id/data/:field_id/
// @Summary Set one value
// @Description Upserts the value of one field; an empty value deletes it.
// @Tags employees
// @Accept json
// @Produce json
// @Param id path int true "Employee ID"
// @Param field_id path int true "Field ID"
// @Param request body object{value=string} true "Value"
// @Success 200 {object} models.EmployeeData
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id}/data/{field_id}/ [put]
func (s *Server) SetEmployeeValue(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	fieldID, err := s.parseID(c, "field_id")
	if err != nil {
		return nil
	}
	var req struct {
		Value any `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	data, err := s.employeeService.SetValue(c.UserContext(), service.SetValueInput{
		UserID:     currentUserID(c),
		EmployeeID: id,
		FieldID:    fieldID,
		Value:      stringValue(req.Value),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if data == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(data)
}

// DeleteEmployee handles DELETE /employees/:id/
// @Summary Delete an employee
// @Tags employees
// @Param id path int true "Employee ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /employees/{id}/ [delete]
func (s *Server) DeleteEmployee(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.employeeService.DeleteEmployee(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportEmployees handles GET /forms/:id/employees/export
// @Summary Export a template's employees as XLSX
// @Tags employees
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Template ID"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{id}/employees/export [get]
func (s *Server) ExportEmployees(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	file, err := s.exportService.ExportTemplate(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Attachment(file.Filename)
	c.Set(fiber.HeaderContentType, service.XLSXContentType)
	return c.Send(file.Content)
}

// formFieldValues collects field_<id> inputs from a urlencoded, multipart or
// JSON body. A JSON body may also nest them under "values".
func formFieldValues(c *fiber.Ctx) (map[string]string, error) {
	values := map[string]string{}
	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		var raw map[string]any
		if err := json.Unmarshal(c.Body(), &raw); err != nil {
			return nil, err
		}
		if nested, ok := raw["values"].(map[string]any); ok {
			return stringValues(nested), nil
		}
		for k, v := range raw {
			if strings.HasPrefix(k, fieldKeyPrefix) {
				values[k] = stringValue(v)
			}
		}
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, vs := range form.Value {
			if strings.HasPrefix(k, fieldKeyPrefix) && len(vs) > 0 {
				values[k] = vs[0]
			}
		}
	default:
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			k := string(key)
			if strings.HasPrefix(k, fieldKeyPrefix) {
				values[k] = string(value)
			}
		})
	}
	return values, nil
}

func stringValues(raw map[string]any) map[string]string {
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringValue(v)
	}
	return out
}

// stringValue renders a decoded JSON scalar the way it would be typed into a form.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
