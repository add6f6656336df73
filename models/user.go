package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the sign-in account. Its ID is the partition key for every
// record the user owns.
type User struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"not null" json:"-"`
	DisplayName   string    `json:"display_name"`
	ResetToken    string    `gorm:"index" json:"-"`
	ResetTokenExp time.Time `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
