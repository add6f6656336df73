package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeightEntry is one body-weight measurement. There is at most one per
// user per date.
type WeightEntry struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);uniqueIndex:idx_weight_user_date;not null" json:"user_id"`
	Date       string    `gorm:"size:10;uniqueIndex:idx_weight_user_date;not null" json:"date"`
	WeightKg   float64   `json:"weight_kg"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (e *WeightEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
