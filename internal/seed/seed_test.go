package seed

import (
	"net/mail"
	"strconv"
	"testing"
	"time"

	"formstack/internal/models"
	"formstack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFieldValue_Formats(t *testing.T) {
	for i := 0; i < 20; i++ {
		n, err := strconv.Atoi(FieldValue(&models.FormField{FieldType: models.FieldTypeNumber}))
		if err != nil || n < 18 || n > 65 {
			t.Fatalf("unexpected number value: %d (%v)", n, err)
		}

		if _, err := time.Parse("2006-01-02", FieldValue(&models.FormField{FieldType: models.FieldTypeDate})); err != nil {
			t.Fatalf("date value not ISO formatted: %v", err)
		}

		if _, err := mail.ParseAddress(FieldValue(&models.FormField{FieldType: models.FieldTypeEmail})); err != nil {
			t.Fatalf("invalid email value: %v", err)
		}

		if _, err := strconv.ParseBool(FieldValue(&models.FormField{FieldType: models.FieldTypeCheckbox})); err != nil {
			t.Fatalf("checkbox value not a bool: %v", err)
		}

		dept := FieldValue(&models.FormField{Label: "Department", FieldType: models.FieldTypeSelect})
		if !contains(departments, dept) {
			t.Fatalf("unexpected department %q", dept)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestFactory_DryRun(t *testing.T) {
	f := NewFactory(nil, FactoryOptions{DryRun: true, SkipBcrypt: true, MaxDays: 30})

	user, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	tpl, fields, err := f.CreateTemplate(user, TemplatePresets[0])
	require.NoError(t, err)
	require.Len(t, fields, len(TemplatePresets[0].Fields))
	assert.Less(t, time.Since(tpl.CreatedAt), 31*24*time.Hour)
	for i, field := range fields {
		assert.Equal(t, i, field.Order)
		assert.Equal(t, tpl.ID, field.FormTemplateID)
	}

	emp, err := f.CreateEmployee(user, tpl, fields)
	require.NoError(t, err)
	assert.NotZero(t, emp.ID)
}

func TestSeed(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	res, err := Seed(db, Options{
		NumUsers:             2,
		TemplatesPerUser:     2,
		EmployeesPerTemplate: 3,
		SkipBcrypt:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, Result{
		Users:     2,
		Templates: 4,
		Fields:    len(TemplatePresets[0].Fields)*2 + len(TemplatePresets[1].Fields)*2,
		Employees: 12,
	}, res)

	var demo models.User
	require.NoError(t, db.Where("username = ?", demoUser).First(&demo).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(demo.Password), []byte(DefaultPassword)))

	var templates int64
	require.NoError(t, db.Model(&models.FormTemplate{}).Where("created_by = ?", demo.ID).Count(&templates).Error)
	assert.EqualValues(t, 2, templates)

	// Every required field of every employee has a value.
	var missing int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM employees e
		JOIN form_fields f ON f.form_template_id = e.form_template_id AND f.required
		LEFT JOIN employee_data d ON d.employee_id = e.id AND d.field_id = f.id
		WHERE d.id IS NULL`).Scan(&missing).Error)
	assert.Zero(t, missing)

	res, err = Seed(db, Options{NumUsers: 1, ShouldClean: true, SkipBcrypt: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
	require.NoError(t, db.Model(&models.FormTemplate{}).Count(&templates).Error)
	assert.Zero(t, templates)
}
