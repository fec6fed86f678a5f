package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studyhub/missions/models"
)

// easyDay falls on a day of month divisible by three.
var easyDay = time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)

func newSeededStore(t *testing.T, inputs ...TemplateInput) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if len(inputs) == 0 {
		inputs = []TemplateInput{
			{Text: "Review lecture notes", Type: "study", Difficulty: models.DifficultyEasy, TargetValue: 15},
			{Text: "Read a short article", Type: "reading", Difficulty: models.DifficultyEasy, TargetValue: 10},
			{Text: "Solve practice problems", Type: "practice", Difficulty: models.DifficultyMedium, TargetValue: 30},
			{Text: "Mock exam", Type: "practice", Difficulty: models.DifficultyHard, TargetValue: 90},
		}
	}
	templates := make([]models.MissionTemplate, 0, len(inputs))
	for _, in := range inputs {
		tpl, err := NewTemplate(in)
		require.NoError(t, err)
		templates = append(templates, tpl)
	}
	_, err := store.AddTemplates(context.Background(), templates)
	require.NoError(t, err)
	store.PutUser(models.User{ID: 1, Username: "alice"})
	return store
}

func missionIDs(missions []models.DailyMission) []uint {
	ids := make([]uint, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}
	return ids
}
