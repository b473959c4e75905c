package service

import (
	"context"

	"formstack/internal/models"
	"formstack/internal/repository"
)

const recentActivityLimit = 5

type DashboardStats struct {
	FormCount     int64 `json:"form_count"`
	EmployeeCount int64 `json:"employee_count"`
}

type RecentActivity struct {
	RecentForms     []models.FormTemplate `json:"recent_forms"`
	RecentEmployees []models.Employee     `json:"recent_employees"`
}

type DashboardService struct {
	templateRepo repository.TemplateRepository
	employeeRepo repository.EmployeeRepository
}

func NewDashboardService(templateRepo repository.TemplateRepository, employeeRepo repository.EmployeeRepository) *DashboardService {
	return &DashboardService{templateRepo: templateRepo, employeeRepo: employeeRepo}
}

func (s *DashboardService) Stats(ctx context.Context, userID uint) (*DashboardStats, error) {
	forms, err := s.templateRepo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	employees, err := s.employeeRepo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{FormCount: forms, EmployeeCount: employees}, nil
}

func (s *DashboardService) RecentActivity(ctx context.Context, userID uint) (*RecentActivity, error) {
	forms, err := s.templateRepo.Recent(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	employees, err := s.employeeRepo.Recent(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	return &RecentActivity{RecentForms: forms, RecentEmployees: employees}, nil
}
