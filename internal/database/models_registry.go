package database

import "formstack/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.FormTemplate{},
		&models.FormField{},
		&models.Employee{},
		&models.EmployeeData{},
	}
}
