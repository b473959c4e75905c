package server

import (
	"errors"

	"formstack/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ajaxError writes the {status, message} envelope the page scripts expect.
func ajaxError(c *fiber.Ctx, err error) error {
	message := err.Error()
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	return c.Status(models.StatusFor(err)).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// SaveFieldOrder handles POST /ajax/save-field-order/
// @Summary Reorder fields (page alias)
// @Tags ajax
// @Accept json
// @Produce json
// @Param request body []models.FieldOrder true "New orders"
// @Success 200 {object} object{status=string}
// @Failure 404 {object} object{status=string,message=string}
// @Security BearerAuth
// @Router /ajax/save-field-order/ [post]
func (s *Server) SaveFieldOrder(c *fiber.Ctx) error {
	var items []models.FieldOrder
	if err := c.BodyParser(&items); err != nil {
		return ajaxError(c, models.NewValidationError("Expected a list of {id, order} items"))
	}
	if err := s.fieldService.ReorderFields(c.UserContext(), currentUserID(c), items); err != nil {
		return ajaxError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// AjaxDeleteField handles DELETE /ajax/delete-field/:id/
// @Summary Delete a field by id (page alias)
// @Tags ajax
// @Produce json
// @Param id path int true "Field ID"
// @Success 200 {object} object{status=string}
// @Failure 404 {object} object{status=string,message=string}
// @Security BearerAuth
// @Router /ajax/delete-field/{id}/ [delete]
func (s *Server) AjaxDeleteField(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return ajaxError(c, models.NewValidationError("Invalid ID"))
	}
	if err := s.fieldService.DeleteOwnedField(c.UserContext(), currentUserID(c), uint(id)); err != nil {
		return ajaxError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
