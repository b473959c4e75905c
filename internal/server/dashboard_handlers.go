package server

import (
	"formstack/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard handles GET /dashboard
// @Summary Dashboard counts
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.DashboardStats
// @Security BearerAuth
// @Router /dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	stats, err := s.dashboardService.Stats(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}

// GetRecentActivity handles GET /recent-activity
// @Summary Five newest templates and employees
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.RecentActivity
// @Security BearerAuth
// @Router /recent-activity [get]
func (s *Server) GetRecentActivity(c *fiber.Ctx) error {
	activity, err := s.dashboardService.RecentActivity(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(activity)
}
