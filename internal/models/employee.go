package models

import "time"

// Employee is a record bound to one template whose values live in EmployeeData.
type Employee struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	FormTemplateID uint           `gorm:"not null;index" json:"form_template"`
	CreatedBy      uint           `gorm:"not null;index" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	FormTemplate   *FormTemplate  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Creator        *User          `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	Data           []EmployeeData `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Employee) TableName() string {
	return "employees"
}

// EmployeeData holds one value of one field for one employee.
type EmployeeData struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EmployeeID uint       `gorm:"not null;uniqueIndex:uq_employee_data_employee_field" json:"employee"`
	FieldID    uint       `gorm:"not null;uniqueIndex:uq_employee_data_employee_field;index" json:"field"`
	Value      string     `gorm:"type:text;not null" json:"value"`
	Field      *FormField `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (EmployeeData) TableName() string {
	return "employee_data"
}

// EmployeeFieldValue is an EmployeeData row annotated with its field's label and type.
type EmployeeFieldValue struct {
	ID         uint      `json:"id"`
	EmployeeID uint      `json:"employee"`
	FieldID    uint      `json:"field"`
	FieldLabel string    `json:"field_label"`
	FieldType  FieldType `json:"field_type"`
	Value      string    `json:"value"`
}

// EmployeeDetail is an employee together with its annotated values.
type EmployeeDetail struct {
	Employee
	FieldsData []EmployeeFieldValue `json:"fields_data"`
}
