package server

import (
	"time"

	"formstack/internal/cache"
	"formstack/internal/middleware"
	"formstack/internal/models"
	"formstack/internal/observability"
	"formstack/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /register
// @Summary User registration
// @Description Create an account. Errors are keyed by input field.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,username=string,first_name=string,last_name=string,password=string,password2=string} true "Registration"
// @Success 201 {object} object{message=string,user_id=int,email=string,username=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email" form:"email"`
		Username  string `json:"username" form:"username"`
		FirstName string `json:"first_name" form:"first_name"`
		LastName  string `json:"last_name" form:"last_name"`
		Password  string `json:"password" form:"password"`
		Password2 string `json:"password2" form:"password2"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	observability.AuthEvents.WithLabelValues("register").Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "User registered successfully",
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}

// Login handles POST /login
// @Summary User login
// @Description Authenticate and return a token pair; also sets the access cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{refresh=string,access=string,user_id=int,email=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if models.StatusFor(err) == fiber.StatusUnauthorized {
			observability.AuthEvents.WithLabelValues("login_failure").Inc()
		}
		return models.RespondWithAppError(c, err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	observability.AuthEvents.WithLabelValues("login_success").Inc()

	s.setAccessCookie(c, pair)
	return c.JSON(fiber.Map{
		"refresh": pair.Refresh,
		"access":  pair.Access,
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// ObtainToken handles POST /api/token/
// @Summary Obtain a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{refresh=string,access=string,user_id=int,email=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/token/ [post]
func (s *Server) ObtainToken(c *fiber.Ctx) error {
	return s.Login(c)
}

// RefreshToken handles POST /api/token/refresh/
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh=string} true "Refresh token"
// @Success 200 {object} object{access=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/token/refresh/ [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh" form:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil || req.Refresh == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"refresh": "This field is required."}))
	}

	claims, err := s.parseToken(req.Refresh)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Token is invalid or expired"))
	}
	if err := s.validateClaims(c.UserContext(), claims, tokenTypeRefresh); err != nil {
		return models.RespondWithAppError(c, err)
	}

	access, expires, err := s.signToken(claims.UserID, claims.Version, tokenTypeAccess, s.accessTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	observability.AuthEvents.WithLabelValues("refresh").Inc()

	s.setAccessCookie(c, &tokenPair{Access: access, AccessExpires: expires})
	return c.JSON(fiber.Map{"access": access})
}

// Logout handles POST /logout
// @Summary Log out
// @Description Revokes the presented access token and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("tokenClaims").(*tokenClaims); ok {
		ttl := time.Until(claims.ExpiresAt)
		if err := cache.Revoke(c.UserContext(), claims.ID, ttl); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
				"jti", claims.ID, "error", err.Error())
		}
	}
	observability.AuthEvents.WithLabelValues("logout").Inc()

	s.clearAccessCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ChangePassword handles POST /change-password
// @Summary Change password
// @Description Re-verifies the old password, stores the new one and invalidates every
// @Description previously issued token. Returns a fresh pair for the caller.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{old_password=string,new_password1=string,new_password2=string} true "Passwords"
// @Success 200 {object} object{message=string,refresh=string,access=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /change-password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword  string `json:"old_password" form:"old_password"`
		NewPassword1 string `json:"new_password1" form:"new_password1"`
		NewPassword2 string `json:"new_password2" form:"new_password2"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:       currentUserID(c),
		OldPassword:  req.OldPassword,
		NewPassword1: req.NewPassword1,
		NewPassword2: req.NewPassword2,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	observability.AuthEvents.WithLabelValues("password_change").Inc()

	s.setAccessCookie(c, pair)
	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
		"refresh": pair.Refresh,
		"access":  pair.Access,
	})
}
