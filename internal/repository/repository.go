// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"formstack/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// wrapDBError passes AppErrors through and reports anything else as internal.
func wrapDBError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// ownedTemplateIDs is a subquery selecting the ids of templates owned by userID.
func ownedTemplateIDs(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&models.FormTemplate{}).Select("id").Where("created_by = ?", userID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term anywhere, with wildcards escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
