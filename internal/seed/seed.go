package seed

import (
	"fmt"
	"log"

	"formstack/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers             int
	TemplatesPerUser     int
	EmployeesPerTemplate int
	ShouldClean          bool
	SkipBcrypt           bool
	DryRun               bool
	MaxDays              int
}

// Result counts what a Seed run created.
type Result struct {
	Users     int
	Templates int
	Fields    int
	Employees int
}

// demoUser is always created first so there is a known login.
const demoUser = "demo"

// Seed populates the database with demo users, templates and employees.
func Seed(db *gorm.DB, opts Options) (Result, error) {
	var res Result
	log.Printf("🌱 Starting database seeding: %d users, %d templates/user, %d employees/template",
		opts.NumUsers, opts.TemplatesPerUser, opts.EmployeesPerTemplate)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return res, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, FactoryOptions{DryRun: opts.DryRun, SkipBcrypt: opts.SkipBcrypt, MaxDays: opts.MaxDays})

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		var overrides []func(*models.User)
		if i == 0 && !opts.DryRun && !userExists(db, demoUser) {
			overrides = append(overrides, func(u *models.User) {
				u.Username = demoUser
				u.Email = demoUser + "@example.com"
			})
		}
		user, err := f.CreateUser(overrides...)
		if err != nil {
			return res, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	log.Printf("✓ %d users created (password %q)", res.Users, DefaultPassword)

	for _, user := range users {
		for i := 0; i < opts.TemplatesPerUser; i++ {
			preset := TemplatePresets[i%len(TemplatePresets)]
			tpl, fields, err := f.CreateTemplate(user, preset)
			if err != nil {
				return res, fmt.Errorf("failed to create template: %w", err)
			}
			res.Templates++
			res.Fields += len(fields)

			for j := 0; j < opts.EmployeesPerTemplate; j++ {
				if _, err := f.CreateEmployee(user, tpl, fields); err != nil {
					return res, fmt.Errorf("failed to create employee: %w", err)
				}
				res.Employees++
			}
		}
	}
	log.Printf("✓ %d templates, %d fields, %d employees created", res.Templates, res.Fields, res.Employees)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

func userExists(db *gorm.DB, username string) bool {
	var count int64
	db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	return count > 0
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE employee_data, employees, form_fields, form_templates, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"employee_data", "employees", "form_fields", "form_templates", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
