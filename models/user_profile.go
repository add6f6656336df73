package models

import "time"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// UserProfile holds the fields the daily goal is derived from.
type UserProfile struct {
	UserID              string   `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	WeightKg            float64  `json:"weight_kg"`
	Sex                 Sex      `gorm:"size:10" json:"sex"`
	WeightGoalKg        *float64 `json:"weight_goal_kg,omitempty"`
	ProteinGoalOverride *int     `json:"protein_goal_override,omitempty"`
	ProfilePicture      string   `json:"profile_picture,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
