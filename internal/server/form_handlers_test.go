package server

import (
	"fmt"
	"net/http"
	"testing"

	"formstack/internal/models"
	"formstack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)

	resp, raw := env.do(t, http.MethodPost, "/forms/", token, map[string]string{"name": "  Onboarding  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decodeJSON[models.FormTemplate](t, raw)
	assert.Equal(t, "Onboarding", created.Name)
	assert.Equal(t, user.ID, created.CreatedBy)

	path := fmt.Sprintf("/forms/%d/", created.ID)

	resp, raw = env.do(t, http.MethodPut, path, token, map[string]string{"name": "Offboarding"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "Offboarding", decodeJSON[models.FormTemplate](t, raw).Name)

	resp, raw = env.do(t, http.MethodGet, "/forms/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeJSON[[]models.FormTemplate](t, raw)
	require.Len(t, list, 1)
	assert.Equal(t, "Offboarding", list[0].Name)

	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Template not found", decodeJSON[map[string]any](t, raw)["error"])
}

func TestTemplateRejectsReadOnlyKeys(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)

	for _, key := range []string{"id", "created_by", "created_at", "updated_at"} {
		t.Run(key, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodPost, "/forms/", token, map[string]any{
				"name": "Sneaky",
				key:    99,
			})
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, decodeJSON[map[string]any](t, raw)["fields"], key)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.FormTemplate{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	tpl := testutil.CreateTemplate(t, env.db, alice.ID, "Alice's form")
	field := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	emp := testutil.CreateEmployee(t, env.db, alice.ID, tpl.ID, map[uint]string{field.ID: "Ann"})

	bobToken := env.accessToken(t, bob)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, fmt.Sprintf("/forms/%d/", tpl.ID), nil},
		{http.MethodPut, fmt.Sprintf("/forms/%d/", tpl.ID), map[string]string{"name": "mine"}},
		{http.MethodDelete, fmt.Sprintf("/forms/%d/", tpl.ID), nil},
		{http.MethodGet, fmt.Sprintf("/forms/%d/fields/", tpl.ID), nil},
		{http.MethodPost, fmt.Sprintf("/forms/%d/fields/", tpl.ID), map[string]string{"label": "x", "field_type": "text"}},
		{http.MethodGet, fmt.Sprintf("/forms/%d/fields/%d/", tpl.ID, field.ID), nil},
		{http.MethodDelete, fmt.Sprintf("/forms/%d/fields/%d/", tpl.ID, field.ID), nil},
		{http.MethodGet, fmt.Sprintf("/forms/%d/employees/export", tpl.ID), nil},
		{http.MethodGet, fmt.Sprintf("/employees/%d/", emp.ID), nil},
		{http.MethodPut, fmt.Sprintf("/employees/%d/", emp.ID), map[string]any{"values": map[string]string{}}},
		{http.MethodDelete, fmt.Sprintf("/employees/%d/", emp.ID), nil},
		{http.MethodPost, "/employees/", map[string]any{"form_template": tpl.ID}},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp, raw := env.do(t, r.method, r.path, bobToken, r.body)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
		})
	}

	resp, raw := env.do(t, http.MethodGet, "/employees/", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decodeJSON[map[string]any](t, raw)["count"])

	// Nothing of alice's was touched.
	var fields int64
	require.NoError(t, env.db.Model(&models.FormField{}).Where("form_template_id = ?", tpl.ID).Count(&fields).Error)
	assert.EqualValues(t, 1, fields)
}

func TestCreateFieldAssignsOrder(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	path := fmt.Sprintf("/forms/%d/fields/", tpl.ID)

	for i, label := range []string{"First", "Second", "Third"} {
		resp, raw := env.do(t, http.MethodPost, path, token, map[string]any{
			"label":         label,
			"field_type":    "text",
			"order":         42,
			"form_template": 999,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
		field := decodeJSON[models.FormField](t, raw)
		assert.Equal(t, i, field.Order)
		assert.Equal(t, tpl.ID, field.FormTemplateID)
		assert.True(t, field.Required)
	}

	resp, raw := env.do(t, http.MethodPost, path, token, map[string]any{"label": "No type"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Missing required fields: label, field_type", decodeJSON[map[string]any](t, raw)["error"])

	resp, _ = env.do(t, http.MethodPost, path, token, map[string]any{"label": "Bad", "field_type": "textarea"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = env.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fields := decodeJSON[[]models.FormField](t, raw)
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"First", "Second", "Third"}, []string{fields[0].Label, fields[1].Label, fields[2].Label})
}

func TestUpdateFieldIgnoresOrder(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	field := testutil.CreateField(t, env.db, tpl.ID, "Email", 3)

	resp, raw := env.do(t, http.MethodPut, fmt.Sprintf("/forms/%d/fields/%d/", tpl.ID, field.ID), token, map[string]any{
		"field_type": "email",
		"required":   false,
		"order":      0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	updated := decodeJSON[models.FormField](t, raw)
	assert.Equal(t, models.FieldTypeEmail, updated.FieldType)
	assert.False(t, updated.Required)
	assert.Equal(t, "Email", updated.Label)
	assert.Equal(t, 3, updated.Order)
}

func TestReorderFields(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	token := env.accessToken(t, alice)
	tpl := testutil.CreateTemplate(t, env.db, alice.ID, "Form")
	a := testutil.CreateField(t, env.db, tpl.ID, "A", 0)
	b := testutil.CreateField(t, env.db, tpl.ID, "B", 1)
	foreign := testutil.CreateField(t, env.db, testutil.CreateTemplate(t, env.db, bob.ID, "Bob").ID, "X", 0)

	orderOf := func(id uint) int {
		var f models.FormField
		require.NoError(t, env.db.First(&f, id).Error)
		return f.Order
	}

	t.Run("rest swap", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, "/forms/fields/reorder/", token, []models.FieldOrder{
			{ID: a.ID, Order: 1}, {ID: b.ID, Order: 0},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		assert.Equal(t, "success", decodeJSON[map[string]any](t, raw)["status"])
		assert.Equal(t, 1, orderOf(a.ID))
		assert.Equal(t, 0, orderOf(b.ID))
	})

	t.Run("ajax missing id rolls back", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, "/ajax/save-field-order/", token, []models.FieldOrder{
			{ID: a.ID, Order: 5}, {ID: 9999, Order: 6},
		})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeJSON[map[string]any](t, raw)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "Field 9999 not found", body["message"])
		assert.Equal(t, 1, orderOf(a.ID))
	})

	t.Run("ajax foreign field", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, "/ajax/save-field-order/", token, []models.FieldOrder{
			{ID: foreign.ID, Order: 3},
		})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, fmt.Sprintf("Field %d not found", foreign.ID), decodeJSON[map[string]any](t, raw)["message"])
		assert.Equal(t, 0, orderOf(foreign.ID))
	})

	t.Run("validation", func(t *testing.T) {
		for name, items := range map[string][]models.FieldOrder{
			"empty":     {},
			"negative":  {{ID: a.ID, Order: -1}},
			"duplicate": {{ID: a.ID, Order: 0}, {ID: a.ID, Order: 1}},
		} {
			resp, raw := env.do(t, http.MethodPost, "/ajax/save-field-order/", token, items)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
			assert.Equal(t, "error", decodeJSON[map[string]any](t, raw)["status"], name)
		}
	})
}

func TestAjaxDeleteField(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	tpl := testutil.CreateTemplate(t, env.db, alice.ID, "Form")
	field := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	emp := testutil.CreateEmployee(t, env.db, alice.ID, tpl.ID, map[uint]string{field.ID: "Ann"})

	path := fmt.Sprintf("/ajax/delete-field/%d/", field.ID)

	resp, raw := env.do(t, http.MethodDelete, path, env.accessToken(t, bob), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", decodeJSON[map[string]any](t, raw)["status"])

	resp, raw = env.do(t, http.MethodDelete, path, env.accessToken(t, alice), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "success", decodeJSON[map[string]any](t, raw)["status"])

	var values int64
	require.NoError(t, env.db.Model(&models.EmployeeData{}).Where("employee_id = ?", emp.ID).Count(&values).Error)
	assert.Zero(t, values)
}

func TestDeleteTemplateCascades(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	field := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	testutil.CreateEmployee(t, env.db, user.ID, tpl.ID, map[uint]string{field.ID: "Ann"})

	resp, _ := env.do(t, http.MethodDelete, fmt.Sprintf("/forms/%d/", tpl.ID), env.accessToken(t, user), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	for _, model := range []any{&models.FormField{}, &models.Employee{}, &models.EmployeeData{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}
