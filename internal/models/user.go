package models

import "time"

// User represents a host-application account.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Login name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Contact email, matched against Slack profiles at link time.
	Password string `gorm:"type:text;not null"`             // Bcrypt password hash.

	Active   bool `gorm:"not null;default:true"`  // Whether the account is enabled.
	Disabled bool `gorm:"not null;default:false"` // Administrative lockout flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
