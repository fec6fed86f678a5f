package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the slice of the account row the mission engine reads and mutates.
// Points may be NULL for accounts created by other flows; it is treated as zero.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"size:64;not null" json:"username"`
	Points      *int           `json:"points"`
	StreakCount int            `gorm:"default:0" json:"streak_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PointsOrZero returns the stored balance with NULL mapped to 0.
func (u *User) PointsOrZero() int {
	if u.Points == nil {
		return 0
	}
	return *u.Points
}
