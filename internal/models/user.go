// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that owns templates and employee records.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username          string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FirstName         string    `gorm:"size:150;not null;default:''" json:"first_name"`
	LastName          string    `gorm:"size:150;not null;default:''" json:"last_name"`
	Avatar            string    `gorm:"size:255;not null;default:''" json:"avatar,omitempty"`
	Password          string    `gorm:"size:255;not null" json:"-"`
	CredentialVersion uint      `gorm:"not null;default:1" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
