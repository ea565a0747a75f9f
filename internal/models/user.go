// internal/models/user.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Username  string         `json:"username" gorm:"unique;not null"`
	Email     string         `json:"email" gorm:"unique;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Role      string         `json:"role" gorm:"default:'guardian'"`
}

// MinorProfile is a child record owned exclusively by the guardian who
// created it. Participant rows reference it but never own it.
type MinorProfile struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	GuardianID  uint           `json:"guardian_id" gorm:"index;not null"`
	FullName    string         `json:"full_name" gorm:"not null"`
	DateOfBirth time.Time      `json:"date_of_birth"`
	School      string         `json:"school"`
	Grade       string         `json:"grade"`
	NationalID  string         `json:"national_id,omitempty"`
}
