package models

import "time"

// FieldType is the closed set of input kinds a form field can declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeEmail    FieldType = "email"
	FieldTypePassword FieldType = "password"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
)

// FieldTypes lists every supported field type in display order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeEmail,
	FieldTypePassword,
	FieldTypeSelect,
	FieldTypeCheckbox,
	FieldTypeRadio,
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

const (
	MaxTemplateNameLength = 100
	MaxFieldLabelLength   = 100
)

// FormTemplate is a named, owner-scoped collection of ordered fields.
type FormTemplate struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:100;not null" json:"name"`
	CreatedBy uint        `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Creator   *User       `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	Fields    []FormField `gorm:"foreignKey:FormTemplateID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}

// FormField is one typed input slot of a template.
type FormField struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FormTemplateID uint      `gorm:"not null;index" json:"form_template"`
	Label          string    `gorm:"size:100;not null" json:"label"`
	FieldType      FieldType `gorm:"size:20;not null" json:"field_type"`
	Required       bool      `gorm:"not null" json:"required"`
	Order          int       `gorm:"column:order;not null" json:"order"`
}

func (FormField) TableName() string {
	return "form_fields"
}

// FieldOrder is one entry of a bulk reorder request.
type FieldOrder struct {
	ID    uint `json:"id"`
	Order int  `json:"order"`
}
