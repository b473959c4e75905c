package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"formstack/internal/models"
	"formstack/internal/repository"
	"formstack/internal/service"
	"formstack/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestListEmployeesPagination(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	for i := 0; i < 25; i++ {
		testutil.CreateEmployee(t, env.db, user.ID, tpl.ID, nil)
	}

	want := map[string]int{"1": 10, "2": 10, "3": 5, "4": 0, "0": 10, "abc": 10}
	for page, size := range want {
		t.Run("page "+page, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodGet, "/employees/?page="+page, token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

			got := decodeJSON[repository.Page](t, raw)
			assert.EqualValues(t, 25, got.Count)
			assert.Equal(t, 3, got.NumPages)
			assert.Equal(t, repository.PageSize, got.PageSize)
			assert.Len(t, got.Results, size)
		})
	}
}

func TestListEmployeesFilterAndSearch(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)

	first := testutil.CreateTemplate(t, env.db, user.ID, "First")
	first1 := testutil.CreateField(t, env.db, first.ID, "Name", 0)
	first2 := testutil.CreateField(t, env.db, first.ID, "Nick", 1)
	second := testutil.CreateTemplate(t, env.db, user.ID, "Second")
	second1 := testutil.CreateField(t, env.db, second.ID, "Name", 0)

	// Both values match "ann"; the employee must be listed once.
	ann := testutil.CreateEmployee(t, env.db, user.ID, first.ID, map[uint]string{first1.ID: "Ann", first2.ID: "Annie"})
	testutil.CreateEmployee(t, env.db, user.ID, first.ID, map[uint]string{first1.ID: "Bob"})
	testutil.CreateEmployee(t, env.db, user.ID, second.ID, map[uint]string{second1.ID: "Joanna"})

	list := func(query string) repository.Page {
		t.Helper()
		resp, raw := env.do(t, http.MethodGet, "/employees/?"+query, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		return decodeJSON[repository.Page](t, raw)
	}

	assert.EqualValues(t, 3, list("template=all").Count)
	assert.EqualValues(t, 2, list(fmt.Sprintf("template=%d", first.ID)).Count)
	assert.EqualValues(t, 2, list("search=ANN").Count)

	got := list(fmt.Sprintf("template=%d&search=ann", first.ID))
	require.Len(t, got.Results, 1)
	assert.Equal(t, ann.ID, got.Results[0].ID)

	resp, _ := env.do(t, http.MethodGet, "/employees/?template=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAndUpdateEmployee(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	name := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	age := testutil.CreateField(t, env.db, tpl.ID, "Age", 1)

	resp, raw := env.do(t, http.MethodPost, "/employees/", token, map[string]any{
		"form_template": tpl.ID,
		"values": map[string]any{
			fmt.Sprint(name.ID): "  Ann  ",
			fmt.Sprint(age.ID):  41,
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	detail := decodeJSON[models.EmployeeDetail](t, raw)
	assert.Equal(t, user.ID, detail.CreatedBy)
	require.Len(t, detail.FieldsData, 2)
	assert.Equal(t, "Name", detail.FieldsData[0].FieldLabel)
	assert.Equal(t, "Ann", detail.FieldsData[0].Value)
	assert.Equal(t, "41", detail.FieldsData[1].Value)

	path := fmt.Sprintf("/employees/%d/", detail.ID)

	resp, raw = env.do(t, http.MethodPut, path, token, map[string]any{
		"values": map[string]string{fmt.Sprint(age.ID): ""},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	detail = decodeJSON[models.EmployeeDetail](t, raw)
	require.Len(t, detail.FieldsData, 1)
	assert.Equal(t, name.ID, detail.FieldsData[0].FieldID)

	other := testutil.CreateTemplate(t, env.db, user.ID, "Other")
	resp, raw = env.do(t, http.MethodPut, path, token, map[string]any{"form_template": other.ID})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeJSON[map[string]any](t, raw)["fields"], "form_template")

	resp, _ = env.do(t, http.MethodPost, "/employees/", token, map[string]any{
		"form_template": tpl.ID,
		"values":        map[string]string{"99999": "stray"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = env.do(t, http.MethodPost, "/employees/", token, map[string]any{"values": map[string]string{}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeJSON[map[string]any](t, raw)["fields"], "form_template")

	resp, _ = env.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateEmployeeFromForm(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	name := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	path := fmt.Sprintf("/forms/%d/employees/", tpl.ID)

	post := func(form url.Values) (*http.Response, []byte) {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+token)
		return env.send(t, req)
	}

	resp, raw := post(url.Values{"field_" + fmt.Sprint(name.ID): {"   "}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
	assert.Contains(t, decodeJSON[map[string]any](t, raw)["fields"], fmt.Sprintf("field_%d", name.ID))

	resp, raw = post(url.Values{
		"field_" + fmt.Sprint(name.ID): {"Ann"},
		"csrfmiddlewaretoken":          {"ignored"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	detail := decodeJSON[models.EmployeeDetail](t, raw)
	require.Len(t, detail.FieldsData, 1)
	assert.Equal(t, "Ann", detail.FieldsData[0].Value)

	resp, raw = env.do(t, http.MethodPost, path, token, map[string]string{"field_" + fmt.Sprint(name.ID): "Bea"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

func TestSetEmployeeValue(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Form")
	name := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	foreignField := testutil.CreateField(t, env.db, testutil.CreateTemplate(t, env.db, user.ID, "Other").ID, "X", 0)
	emp := testutil.CreateEmployee(t, env.db, user.ID, tpl.ID, map[uint]string{name.ID: "Ann"})

	path := fmt.Sprintf("/employees/%d/data/%d/", emp.ID, name.ID)

	resp, raw := env.do(t, http.MethodPut, path, token, map[string]string{"value": "Anna"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "Anna", decodeJSON[models.EmployeeData](t, raw).Value)

	var rows []models.EmployeeData
	require.NoError(t, env.db.Where("employee_id = ?", emp.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Anna", rows[0].Value)

	resp, _ = env.do(t, http.MethodPut, fmt.Sprintf("/employees/%d/data/%d/", emp.ID, foreignField.ID), token, map[string]string{"value": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, path, token, map[string]string{"value": ""})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, env.db.Where("employee_id = ?", emp.ID).Find(&rows).Error)
	assert.Empty(t, rows)
}

func TestExportEmployees(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")
	token := env.accessToken(t, user)
	tpl := testutil.CreateTemplate(t, env.db, user.ID, "Staff List")
	name := testutil.CreateField(t, env.db, tpl.ID, "Name", 0)
	dept := testutil.CreateField(t, env.db, tpl.ID, "Department", 1)
	testutil.CreateEmployee(t, env.db, user.ID, tpl.ID, map[uint]string{name.ID: "Ann", dept.ID: "Ops"})

	resp, raw := env.do(t, http.MethodGet, fmt.Sprintf("/forms/%d/employees/export", tpl.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, service.XLSXContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Staff_List_employees.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(service.ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "Created", "Name", "Department"}, rows[0])
	assert.Equal(t, "Ann", rows[1][2])
	assert.Equal(t, "Ops", rows[1][3])
}
