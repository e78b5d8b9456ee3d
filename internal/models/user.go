package models

import (
	"strings"
	"time"
)

// User represents an account that can participate in conversations and rescues.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:128;not null" json:"first_name"`
	LastName  string    `gorm:"size:128" json:"last_name"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	Volunteer bool      `gorm:"not null;default:false" json:"volunteer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName joins first and last name, tolerating a missing last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
