package server

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"formstack/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// readOnlyKeys are server-assigned attributes a client may never write.
var readOnlyKeys = []string{"id", "created_by", "created_at", "updated_at"}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "template_id" -> "Invalid template ID", "fieldId" -> "Invalid field ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "_id"); ok {
		return strings.ReplaceAll(prefix, "_", " ") + " ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// decodeBody parses a JSON object body into dest after rejecting any of the
// read-only keys plus extraReadOnly. The rejection names the first offending key.
// On failure it writes a 400 response and returns errResponseWritten.
func decodeBody(c *fiber.Ctx, dest any, extraReadOnly ...string) error {
	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}

	for _, key := range append(append([]string{}, extraReadOnly...), readOnlyKeys...) {
		if _, present := raw[key]; present {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(map[string]string{key: "This field is read-only."}))
			return errResponseWritten
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// respond writes err with the status its code maps to, or data as JSON with status.
func respond(c *fiber.Ctx, status int, data any, err error) error {
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(status).JSON(data)
}
