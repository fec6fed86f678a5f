package models

import (
	"time"

	"gorm.io/datatypes"
)

// StreakRollover marks a day whose streaks were already settled.
type StreakRollover struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Day       datatypes.Date `gorm:"uniqueIndex;not null" json:"day"`
	Advanced  int64          `json:"advanced"`
	Reset     int64          `json:"reset"`
	CreatedAt time.Time      `json:"created_at"`
}
