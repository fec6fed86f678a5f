package models

import "time"

// PointLog is an append-only ledger entry; one row per settlement action.
type PointLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_point_logs_user_created,priority:1" json:"user_id"`
	Points    int       `gorm:"not null" json:"points"`
	Reason    string    `gorm:"size:320;not null" json:"reason"`
	CreatedAt time.Time `gorm:"index:idx_point_logs_user_created,priority:2" json:"created_at"`
}
