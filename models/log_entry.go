package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogEntry is one recorded protein intake.
type LogEntry struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);index:idx_log_user_date;not null" json:"user_id"`
	FoodName     string    `gorm:"not null" json:"food_name"`
	ServingGrams float64   `json:"serving_grams"`
	ProteinGrams float64   `json:"protein_grams"`
	Date         string    `gorm:"size:10;index:idx_log_user_date;not null" json:"date"` // YYYY-MM-DD
	RecordedAt   time.Time `json:"recorded_at"`
}

func (e *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
