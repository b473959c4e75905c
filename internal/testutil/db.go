// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"formstack/internal/database"
	"formstack/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the plain-text password of users created by CreateUser.
const DefaultPassword = "s3cure-pass"

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory database with the full schema applied.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user whose password is DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:             strings.ToLower(username) + "@example.com",
		Username:          username,
		Password:          string(hash),
		CredentialVersion: 1,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTemplate inserts a template owned by ownerID.
func CreateTemplate(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.FormTemplate {
	t.Helper()
	tpl := &models.FormTemplate{Name: name, CreatedBy: ownerID}
	require.NoError(t, db.Create(tpl).Error)
	return tpl
}

// CreateField inserts a required text field at the given order.
func CreateField(t *testing.T, db *gorm.DB, templateID uint, label string, order int) *models.FormField {
	t.Helper()
	field := &models.FormField{
		FormTemplateID: templateID,
		Label:          label,
		FieldType:      models.FieldTypeText,
		Required:       true,
		Order:          order,
	}
	require.NoError(t, db.Create(field).Error)
	return field
}

// CreateEmployee inserts an employee and one data row per entry in values.
func CreateEmployee(t *testing.T, db *gorm.DB, ownerID, templateID uint, values map[uint]string) *models.Employee {
	t.Helper()
	emp := &models.Employee{FormTemplateID: templateID, CreatedBy: ownerID}
	require.NoError(t, db.Create(emp).Error)
	for fieldID, value := range values {
		require.NoError(t, db.Create(&models.EmployeeData{
			EmployeeID: emp.ID,
			FieldID:    fieldID,
			Value:      value,
		}).Error)
	}
	return emp
}

// PNG returns an encoded w x h image filled with a solid color.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
