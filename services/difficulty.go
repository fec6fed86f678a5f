package services

import (
	"time"

	"github.com/studyhub/missions/models"
)

// DifficultyFor picks the tier for a calendar day. It depends on the day of
// month only, so every user gets the same tier on the same date.
func DifficultyFor(day time.Time) models.Difficulty {
	switch day.Day() % 3 {
	case 0:
		return models.DifficultyEasy
	case 1:
		return models.DifficultyHard
	default:
		return models.DifficultyMedium
	}
}
