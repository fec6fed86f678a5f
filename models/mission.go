package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Difficulty is the tier a mission template belongs to.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MissionTemplate is a catalog entry describing a kind of daily task.
type MissionTemplate struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Slug        string     `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Text        string     `gorm:"size:255;not null" json:"text"`
	Type        string     `gorm:"size:32;not null" json:"type"`
	Difficulty  Difficulty `gorm:"size:8;index;not null" json:"difficulty"`
	TargetValue int        `gorm:"not null;default:0" json:"target_value"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName keeps the catalog in the mission_types table.
func (MissionTemplate) TableName() string {
	return "mission_types"
}

// DailyMission is one user's instance of a template for a calendar day.
// The (user_id, mission_date, template_id) triple is unique; only IsCompleted changes after insert.
type DailyMission struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_daily_missions_owner_day,priority:1" json:"user_id"`
	MissionDate   datatypes.Date `gorm:"not null;uniqueIndex:idx_daily_missions_owner_day,priority:2;index" json:"mission_date"`
	TemplateID    uint           `gorm:"not null;uniqueIndex:idx_daily_missions_owner_day,priority:3" json:"-"`
	Text          string         `gorm:"size:255;not null" json:"text"`
	Type          string         `gorm:"size:32;not null" json:"type"`
	TargetMinutes int            `gorm:"not null;default:0" json:"target_minutes"`
	IsCompleted   bool           `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
}

// Day returns the mission date as a time at UTC midnight.
func (m DailyMission) Day() time.Time {
	return time.Time(m.MissionDate)
}

// MarshalJSON renders mission_date as YYYY-MM-DD.
func (m DailyMission) MarshalJSON() ([]byte, error) {
	type alias DailyMission
	return json.Marshal(struct {
		alias
		MissionDate string `json:"mission_date"`
	}{
		alias:       alias(m),
		MissionDate: m.Day().Format(DateLayout),
	})
}

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// DayOf truncates t to its calendar day in t's location and re-anchors it at UTC midnight,
// so the stored DATE never shifts with the database session zone.
func DayOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
