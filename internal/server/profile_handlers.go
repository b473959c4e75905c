package server

import (
	"io"

	"formstack/internal/models"
	"formstack/internal/service"

	"github.com/gofiber/fiber/v2"
)

const avatarURLPrefix = "/media/avatars/"

// ProfileResponse is the user summary returned by the profile endpoints.
type ProfileResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

func toProfileResponse(user *models.User) ProfileResponse {
	avatar := ""
	if user.Avatar != "" {
		avatar = avatarURLPrefix + user.Avatar
	}
	return ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    avatar,
	}
}

// GetProfile handles GET /profile
// @Summary Current user profile
// @Tags profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toProfileResponse(user))
}

// UpdateProfile handles PUT /profile
// @Summary Update profile
// @Description Partial update of email, username, first_name and last_name.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body object{email=string,username=string,first_name=string,last_name=string} true "Profile"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Email     *string `json:"email"`
		Username  *string `json:"username"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := decodeBody(c, &req, "avatar", "password"); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    currentUserID(c),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toProfileResponse(user))
}

// UploadAvatar handles POST /profile/avatar
// @Summary Upload avatar
// @Description Accepts a JPEG, PNG, GIF or WebP image; stores a 256px square WebP.
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	user, err := s.avatarService.Upload(c.UserContext(), service.UploadAvatarInput{
		UserID:      currentUserID(c),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(toProfileResponse(user))
}
