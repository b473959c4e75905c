package repository

import (
	"context"
	"regexp"
	"testing"

	"formstack/internal/models"
	"formstack/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRepository_CreateAssignsOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewFieldRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	tpl := testutil.CreateTemplate(t, db, owner.ID, "T")
	other := testutil.CreateTemplate(t, db, owner.ID, "Other")
	testutil.CreateField(t, db, other.ID, "Elsewhere", 9)

	for i, label := range []string{"First", "Second", "Third"} {
		f := &models.FormField{FormTemplateID: tpl.ID, Label: label, FieldType: models.FieldTypeText, Order: 42}
		require.NoError(t, repo.Create(ctx, f))
		assert.Equal(t, i, f.Order)
	}

	fields, err := repo.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "First", fields[0].Label)
	assert.Equal(t, "Third", fields[2].Label)
}

func TestFieldRepository_CreateAfterGap(t *testing.T) {
	db := newTestDB(t)
	repo := NewFieldRepository(db)

	owner := testutil.CreateUser(t, db, "owner")
	tpl := testutil.CreateTemplate(t, db, owner.ID, "T")
	testutil.CreateField(t, db, tpl.ID, "A", 4)

	f := &models.FormField{FormTemplateID: tpl.ID, Label: "B", FieldType: models.FieldTypeDate}
	require.NoError(t, repo.Create(context.Background(), f))
	assert.Equal(t, 5, f.Order)
}

func TestFieldRepository_UpdateKeepsOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewFieldRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	tpl := testutil.CreateTemplate(t, db, owner.ID, "T")
	field := testutil.CreateField(t, db, tpl.ID, "A", 3)

	field.Label = "Renamed"
	field.Required = false
	field.Order = 99
	require.NoError(t, repo.Update(ctx, field))

	got, err := repo.GetInTemplate(ctx, tpl.ID, field.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Label)
	assert.False(t, got.Required)
	assert.Equal(t, 3, got.Order)
}

func TestFieldRepository_Reorder(t *testing.T) {
	db := newTestDB(t)
	repo := NewFieldRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	intruder := testutil.CreateUser(t, db, "intruder")
	tpl := testutil.CreateTemplate(t, db, owner.ID, "T")
	a := testutil.CreateField(t, db, tpl.ID, "A", 0)
	b := testutil.CreateField(t, db, tpl.ID, "B", 1)

	t.Run("swaps orders", func(t *testing.T) {
		err := repo.Reorder(ctx, owner.ID, []models.FieldOrder{{ID: a.ID, Order: 1}, {ID: b.ID, Order: 0}})
		require.NoError(t, err)

		fields, err := repo.ListByTemplate(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, fields[0].ID)
		assert.Equal(t, a.ID, fields[1].ID)
	})

	t.Run("missing id rolls back everything", func(t *testing.T) {
		err := repo.Reorder(ctx, owner.ID, []models.FieldOrder{{ID: a.ID, Order: 7}, {ID: 9999, Order: 8}})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
		assert.Equal(t, "Field 9999 not found", appErr.Message)

		got, err := repo.GetInTemplate(ctx, tpl.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Order)
	})

	t.Run("foreign owner sees not found", func(t *testing.T) {
		err := repo.Reorder(ctx, intruder.ID, []models.FieldOrder{{ID: a.ID, Order: 5}})
		assert.True(t, models.IsNotFound(err))
	})
}

func TestFieldRepository_DeleteOwned(t *testing.T) {
	db := newTestDB(t)
	repo := NewFieldRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	intruder := testutil.CreateUser(t, db, "intruder")
	tpl := testutil.CreateTemplate(t, db, owner.ID, "T")
	field := testutil.CreateField(t, db, tpl.ID, "A", 0)
	testutil.CreateEmployee(t, db, owner.ID, tpl.ID, map[uint]string{field.ID: "v"})

	assert.True(t, models.IsNotFound(repo.DeleteOwned(ctx, field.ID, intruder.ID)))
	require.NoError(t, repo.DeleteOwned(ctx, field.ID, owner.ID))
	assert.True(t, models.IsNotFound(repo.DeleteOwned(ctx, field.ID, owner.ID)))

	var n int64
	require.NoError(t, db.Model(&models.EmployeeData{}).Count(&n).Error)
	assert.Zero(t, n, "values of a deleted field cascade")
}

func TestFieldRepository_DeleteOwnedSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFieldRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "form_fields" WHERE id = $1 AND form_template_id IN (SELECT`)).
		WithArgs(3, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteOwned(context.Background(), 3, 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}
