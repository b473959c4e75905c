package server

import (
	"formstack/internal/models"
	"formstack/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListTemplates handles GET /forms/
// @Summary List form templates
// @Description Templates owned by the caller, newest first.
// @Tags forms
// @Produce json
// @Success 200 {array} models.FormTemplate
// @Security BearerAuth
// @Router /forms/ [get]
func (s *Server) ListTemplates(c *fiber.Ctx) error {
	templates, err := s.templateService.ListTemplates(c.UserContext(), currentUserID(c))
	return respond(c, fiber.StatusOK, templates, err)
}

// CreateTemplate handles POST /forms/
// @Summary Create a form template
// @Tags forms
// @Accept json
// @Produce json
// @Param request body object{name=string} true "Template"
// @Success 201 {object} models.FormTemplate
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/ [post]
func (s *Server) CreateTemplate(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(c, &req); err != nil {
		return nil
	}

	tpl, err := s.templateService.CreateTemplate(c.UserContext(), service.CreateTemplateInput{
		UserID: currentUserID(c),
		Name:   req.Name,
	})
	return respond(c, fiber.StatusCreated, tpl, err)
}

// GetTemplate handles GET /forms/:id/
// @Summary Retrieve a form template
// @Tags forms
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} models.FormTemplate
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{id}/ [get]
func (s *Server) GetTemplate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tpl, err := s.templateService.GetTemplate(c.UserContext(), currentUserID(c), id)
	return respond(c, fiber.StatusOK, tpl, err)
}

// UpdateTemplate handles PUT /forms/:id/
// @Summary Rename a form template
// @Tags forms
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param request body object{name=string} true "Template"
// @Success 200 {object} models.FormTemplate
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{id}/ [put]
func (s *Server) UpdateTemplate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name *string `json:"name"`
	}
	if err := decodeBody(c, &req); err != nil {
		return nil
	}

	tpl, err := s.templateService.UpdateTemplate(c.UserContext(), service.UpdateTemplateInput{
		UserID:     currentUserID(c),
		TemplateID: id,
		Name:       req.Name,
	})
	return respond(c, fiber.StatusOK, tpl, err)
}

// DeleteTemplate handles DELETE /forms/:id/
// @Summary Delete a form template
// @Description Removes the template together with its fields, employees and values.
// @Tags forms
// @Param id path int true "Template ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{id}/ [delete]
func (s *Server) DeleteTemplate(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.templateService.DeleteTemplate(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type fieldRequest struct {
	Label     *string `json:"label" form:"label"`
	FieldType *string `json:"field_type" form:"field_type"`
	Required  *bool   `json:"required" form:"required"`
}

// ListFields handles GET /forms/:template_id/fields/
// @Summary List fields of a template
// @Tags fields
// @Produce json
// @Param template_id path int true "Template ID"
// @Success 200 {array} models.FormField
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/fields/ [get]
func (s *Server) ListFields(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}
	fields, err := s.fieldService.ListFields(c.UserContext(), currentUserID(c), templateID)
	return respond(c, fiber.StatusOK, fields, err)
}

// CreateField handles POST /forms/:template_id/fields/
// @Summary Append a field to a template
// @Description The order is assigned by the server; any submitted order is ignored.
// @Tags fields
// @Accept json
// @Produce json
// @Param template_id path int true "Template ID"
// @Param request body object{label=string,field_type=string,required=bool} true "Field"
// @Success 201 {object} models.FormField
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/fields/ [post]
func (s *Server) CreateField(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}
	var req fieldRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreateFieldInput{
		UserID:     currentUserID(c),
		TemplateID: templateID,
		Required:   req.Required,
	}
	if req.Label != nil {
		in.Label = *req.Label
	}
	if req.FieldType != nil {
		in.FieldType = *req.FieldType
	}

	field, err := s.fieldService.CreateField(c.UserContext(), in)
	return respond(c, fiber.StatusCreated, field, err)
}

// GetField handles GET /forms/:template_id/fields/:id/
// @Summary Retrieve a field
// @Tags fields
// @Produce json
// @Param template_id path int true "Template ID"
// @Param id path int true "Field ID"
// @Success 200 {object} models.FormField
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/fields/{id}/ [get]
func (s *Server) GetField(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}
	fieldID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	field, err := s.fieldService.GetField(c.UserContext(), currentUserID(c), templateID, fieldID)
	return respond(c, fiber.StatusOK, field, err)
}

// UpdateField handles PUT /forms/:template_id/fields/:id/
// @Summary Update a field
// @Description Partial update of label, field_type and required. Order is only changed by reorder.
// @Tags fields
// @Accept json
// @Produce json
// @Param template_id path int true "Template ID"
// @Param id path int true "Field ID"
// @Param request body object{label=string,field_type=string,required=bool} true "Field"
// @Success 200 {object} models.FormField
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/fields/{id}/ [put]
func (s *Server) UpdateField(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}
	fieldID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req fieldRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	field, err := s.fieldService.UpdateField(c.UserContext(), service.UpdateFieldInput{
		UserID:     currentUserID(c),
		TemplateID: templateID,
		FieldID:    fieldID,
		Label:      req.Label,
		FieldType:  req.FieldType,
		Required:   req.Required,
	})
	return respond(c, fiber.StatusOK, field, err)
}

// DeleteField handles DELETE /forms/:template_id/fields/:id/
// @Summary Delete a field
// @Tags fields
// @Param template_id path int true "Template ID"
// @Param id path int true "Field ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/{template_id}/fields/{id}/ [delete]
func (s *Server) DeleteField(c *fiber.Ctx) error {
	templateID, err := s.parseID(c, "template_id")
	if err != nil {
		return nil
	}
	fieldID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.fieldService.DeleteField(c.UserContext(), currentUserID(c), templateID, fieldID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderFields handles POST /forms/fields/reorder/
// @Summary Reorder fields
// @Description Applies every {id, order} pair in one transaction or none of them.
// @Tags fields
// @Accept json
// @Produce json
// @Param request body []models.FieldOrder true "New orders"
// @Success 200 {object} object{status=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /forms/fields/reorder/ [post]
func (s *Server) ReorderFields(c *fiber.Ctx) error {
	var items []models.FieldOrder
	if err := c.BodyParser(&items); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Expected a list of {id, order} items"))
	}
	if err := s.fieldService.ReorderFields(c.UserContext(), currentUserID(c), items); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
