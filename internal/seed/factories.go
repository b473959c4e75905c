// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"formstack/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every seeded user.
const DefaultPassword = "password123"

// FactoryOptions tune how the Factory builds and persists entities.
type FactoryOptions struct {
	// DryRun assigns synthetic IDs and logs instead of writing.
	DryRun bool
	// SkipBcrypt stores a cheap hash, for fast local seeding.
	SkipBcrypt bool
	// MaxDays bounds how far back generated created_at values reach.
	MaxDays int
}

// FieldPreset describes one field of a TemplatePreset.
type FieldPreset struct {
	Label     string
	FieldType models.FieldType
	Required  bool
}

// TemplatePreset is a ready-made form layout used for demo data.
type TemplatePreset struct {
	Name   string
	Fields []FieldPreset
}

// TemplatePresets are the layouts Seed cycles through.
var TemplatePresets = []TemplatePreset{
	{
		Name: "Employee Onboarding",
		Fields: []FieldPreset{
			{Label: "Full name", FieldType: models.FieldTypeText, Required: true},
			{Label: "Work email", FieldType: models.FieldTypeEmail, Required: true},
			{Label: "Start date", FieldType: models.FieldTypeDate, Required: true},
			{Label: "Department", FieldType: models.FieldTypeSelect, Required: true},
			{Label: "Age", FieldType: models.FieldTypeNumber},
			{Label: "Remote", FieldType: models.FieldTypeCheckbox},
		},
	},
	{
		Name: "Contractor Intake",
		Fields: []FieldPreset{
			{Label: "Company", FieldType: models.FieldTypeText, Required: true},
			{Label: "Contact email", FieldType: models.FieldTypeEmail, Required: true},
			{Label: "Engagement", FieldType: models.FieldTypeRadio, Required: true},
			{Label: "Day rate", FieldType: models.FieldTypeNumber},
		},
	},
	{
		Name: "Equipment Request",
		Fields: []FieldPreset{
			{Label: "Requested by", FieldType: models.FieldTypeText, Required: true},
			{Label: "Item", FieldType: models.FieldTypeSelect, Required: true},
			{Label: "Needed by", FieldType: models.FieldTypeDate},
			{Label: "Portal password", FieldType: models.FieldTypePassword},
		},
	},
}

var (
	departments  = []string{"Engineering", "Finance", "Operations", "Sales", "Support", "People"}
	engagements  = []string{"Fixed price", "Time and materials", "Retainer"}
	equipment    = []string{"Laptop", "Monitor", "Headset", "Phone", "Desk"}
	labelChoices = map[string][]string{
		"Department": departments,
		"Engagement": engagements,
		"Item":       equipment,
	}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts FactoryOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// createdAt returns a time somewhere within the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	end := time.Now()
	return gofakeit.DateRange(end.AddDate(0, 0, -maxDays), end)
}

// CreateUser constructs and persists a sample user whose password is
// DefaultPassword. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), f.seq)
	user := &models.User{
		Username:          username,
		Email:             username + "@example.com",
		FirstName:         first,
		LastName:          last,
		CredentialVersion: 1,
	}

	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, err
	}
	user.Password = string(hash)

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.assignID()
		log.Printf("[dry-run] CreateUser: id=%d username=%s", user.ID, user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTemplate persists a template built from preset, owned by owner,
// with its fields numbered in preset order.
func (f *Factory) CreateTemplate(owner *models.User, preset TemplatePreset) (*models.FormTemplate, []models.FormField, error) {
	tpl := &models.FormTemplate{
		Name:      preset.Name,
		CreatedBy: owner.ID,
		CreatedAt: f.createdAt(),
	}
	fields := make([]models.FormField, len(preset.Fields))
	for i, p := range preset.Fields {
		fields[i] = models.FormField{
			Label:     p.Label,
			FieldType: p.FieldType,
			Required:  p.Required,
			Order:     i,
		}
	}

	if f.opts.DryRun {
		tpl.ID = f.assignID()
		for i := range fields {
			fields[i].ID = f.assignID()
			fields[i].FormTemplateID = tpl.ID
		}
		log.Printf("[dry-run] CreateTemplate: owner=%d name=%q fields=%d", owner.ID, tpl.Name, len(fields))
		return tpl, fields, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tpl).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		for i := range fields {
			fields[i].FormTemplateID = tpl.ID
		}
		return tx.Create(&fields).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return tpl, fields, nil
}

// CreateEmployee persists an employee on tpl with a generated value for
// every required field and roughly half of the optional ones.
func (f *Factory) CreateEmployee(owner *models.User, tpl *models.FormTemplate, fields []models.FormField) (*models.Employee, error) {
	emp := &models.Employee{
		FormTemplateID: tpl.ID,
		CreatedBy:      owner.ID,
		CreatedAt:      f.createdAt(),
	}

	data := make([]models.EmployeeData, 0, len(fields))
	for i := range fields {
		if !fields[i].Required && !gofakeit.Bool() {
			continue
		}
		data = append(data, models.EmployeeData{
			FieldID: fields[i].ID,
			Value:   FieldValue(&fields[i]),
		})
	}

	if f.opts.DryRun {
		emp.ID = f.assignID()
		log.Printf("[dry-run] CreateEmployee: template=%d values=%d", tpl.ID, len(data))
		return emp, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(emp).Error; err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		for i := range data {
			data[i].EmployeeID = emp.ID
		}
		return tx.Create(&data).Error
	})
	if err != nil {
		return nil, err
	}
	emp.Data = data
	return emp, nil
}

// FieldValue generates a plausible value for field based on its type.
func FieldValue(field *models.FormField) string {
	switch field.FieldType {
	case models.FieldTypeNumber:
		return strconv.Itoa(gofakeit.Number(18, 65))
	case models.FieldTypeDate:
		end := time.Now()
		return gofakeit.DateRange(end.AddDate(-2, 0, 0), end).Format("2006-01-02")
	case models.FieldTypeEmail:
		return strings.ToLower(gofakeit.Email())
	case models.FieldTypePassword:
		return gofakeit.Password(true, true, true, false, false, 12)
	case models.FieldTypeCheckbox:
		return strconv.FormatBool(gofakeit.Bool())
	case models.FieldTypeSelect, models.FieldTypeRadio:
		if choices, ok := labelChoices[field.Label]; ok {
			return gofakeit.RandomString(choices)
		}
		return gofakeit.RandomString(departments)
	default:
		if strings.Contains(strings.ToLower(field.Label), "name") || strings.Contains(strings.ToLower(field.Label), "by") {
			return gofakeit.Name()
		}
		if strings.EqualFold(field.Label, "Company") {
			return gofakeit.Company()
		}
		return gofakeit.Word()
	}
}
