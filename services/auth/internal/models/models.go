package models

import "time"

// Account is created on registration and never mutated afterwards.
type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;index"              json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	FirstName    string    `gorm:"size:150"                    json:"first_name"`
	LastName     string    `gorm:"size:150"                    json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}
