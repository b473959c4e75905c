package service

import (
	"context"
	"testing"

	"formstack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService(t *testing.T) {
	t.Parallel()
	templates := ownedTemplates(ownerID)
	templates.countFn = func(_ context.Context, _ uint) (int64, error) { return 3, nil }
	templates.recentFn = func(_ context.Context, _ uint, limit int) ([]models.FormTemplate, error) {
		assert.Equal(t, 5, limit)
		return []models.FormTemplate{{ID: 1}}, nil
	}
	employees := noopEmployeeRepo()
	employees.countFn = func(_ context.Context, _ uint) (int64, error) { return 12, nil }

	svc := NewDashboardService(templates, employees)

	stats, err := svc.Stats(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.FormCount)
	assert.Equal(t, int64(12), stats.EmployeeCount)

	recent, err := svc.RecentActivity(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, recent.RecentForms, 1)
}
