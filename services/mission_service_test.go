package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/missions/models"
)

func TestGetMissionsForTodayMaterializesTierTemplates(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)

	missions, err := svc.GetMissionsForToday(context.Background(), 1, easyDay)
	require.NoError(t, err)
	require.Len(t, missions, 2)

	for _, m := range missions {
		assert.NotZero(t, m.ID)
		assert.Equal(t, uint(1), m.UserID)
		assert.False(t, m.IsCompleted)
		assert.Equal(t, "2026-03-03", m.Day().Format(models.DateLayout))
	}
	assert.Equal(t, "Review lecture notes", missions[0].Text)
	assert.Equal(t, "study", missions[0].Type)
	assert.Equal(t, 15, missions[0].TargetMinutes)
	assert.Equal(t, 10, missions[1].TargetMinutes)
}

func TestGetMissionsForTodayIsIdempotent(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	first, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)
	second, err := svc.GetMissionsForToday(ctx, 1, easyDay.Add(8*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, missionIDs(first), missionIDs(second))
	total, _, err := store.CountMissions(ctx, easyDay)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGetMissionsForTodayKeepsUsersAndDaysApart(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	alice, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)
	bob, err := svc.GetMissionsForToday(ctx, 2, easyDay)
	require.NoError(t, err)
	tomorrow, err := svc.GetMissionsForToday(ctx, 1, easyDay.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Len(t, bob, 2)
	assert.NotEqual(t, missionIDs(alice), missionIDs(bob))
	// March 4th is a HARD day.
	require.Len(t, tomorrow, 1)
	assert.Equal(t, "Mock exam", tomorrow[0].Text)
}

func TestGetMissionsForTodayEmptyCatalogIsConfigurationError(t *testing.T) {
	store := newSeededStore(t, TemplateInput{Text: "Only easy", Type: "study", Difficulty: models.DifficultyEasy})
	svc := NewMissionService(store, store)
	ctx := context.Background()

	hardDay := easyDay.AddDate(0, 0, 1)
	missions, err := svc.GetMissionsForToday(ctx, 1, hardDay)
	require.ErrorIs(t, err, ErrCatalogEmpty)
	assert.Contains(t, err.Error(), "HARD")
	assert.Nil(t, missions)

	rows, err := store.ListMissions(ctx, 1, hardDay)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetMissionsForTodayConcurrentFirstRequestsGenerateOnce(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store, WithLocker(NewLocalLocker()))
	ctx := context.Background()

	const callers = 16
	results := make([][]uint, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			missions, err := svc.GetMissionsForToday(ctx, 1, easyDay)
			assert.NoError(t, err)
			results[i] = missionIDs(missions)
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Equal(t, results[0], results[i])
	}
	total, _, err := store.CountMissions(ctx, easyDay)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestToggleMissionTwiceNetsZeroButLogsTwice(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	missions, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)
	id := missions[0].ID

	done, err := svc.ToggleMission(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, Settlement{NewStatus: true, PointsAdded: 50}, done)

	undone, err := svc.ToggleMission(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, Settlement{NewStatus: false, PointsAdded: -50}, undone)
	assert.Zero(t, done.PointsAdded+undone.PointsAdded)

	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, user.PointsOrZero())

	logs, total, err := store.ListPointLogs(ctx, 1, 0, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	assert.Equal(t, -50, logs[0].Points)
	assert.Equal(t, "Undid Mission: Review lecture notes", logs[0].Reason)
	assert.Equal(t, 50, logs[1].Points)
	assert.Equal(t, "Completed Mission: Review lecture notes", logs[1].Reason)

	rows, err := store.ListMissions(ctx, 1, easyDay)
	require.NoError(t, err)
	assert.False(t, rows[0].IsCompleted)
}

func TestToggleMissionTreatsNullPointsAsZero(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, user.Points)

	missions, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)
	_, err = svc.ToggleMission(ctx, missions[0].ID, 1)
	require.NoError(t, err)

	user, err = store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, user.Points)
	assert.Equal(t, 50, *user.Points)
}

func TestToggleMissionAccumulatesOnExistingBalance(t *testing.T) {
	store := newSeededStore(t)
	points := 120
	store.PutUser(models.User{ID: 1, Username: "alice", Points: &points})
	svc := NewMissionService(store, store, WithReward(10))
	ctx := context.Background()

	missions, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)
	for _, m := range missions {
		res, err := svc.ToggleMission(ctx, m.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 10, res.PointsAdded)
	}

	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 140, user.PointsOrZero())
	assert.Equal(t, 10, svc.Reward())
}

func TestToggleUnknownMissionMutatesNothing(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	_, err := svc.ToggleMission(ctx, 404, 0)
	require.ErrorIs(t, err, ErrMissionNotFound)

	user, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, user.Points)
	_, total, err := store.ListPointLogs(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestToggleMissionRejectsOtherUsersMission(t *testing.T) {
	store := newSeededStore(t)
	store.PutUser(models.User{ID: 2, Username: "bob"})
	svc := NewMissionService(store, store)
	ctx := context.Background()

	missions, err := svc.GetMissionsForToday(ctx, 1, easyDay)
	require.NoError(t, err)

	_, err = svc.ToggleMission(ctx, missions[0].ID, 2)
	require.ErrorIs(t, err, ErrForbidden)

	rows, err := store.ListMissions(ctx, 1, easyDay)
	require.NoError(t, err)
	assert.False(t, rows[0].IsCompleted)
}

func TestToggleMissionRollsBackWhenOwnerIsMissing(t *testing.T) {
	store := newSeededStore(t)
	svc := NewMissionService(store, store)
	ctx := context.Background()

	// User 99 has missions but no users row.
	missions, err := svc.GetMissionsForToday(ctx, 99, easyDay)
	require.NoError(t, err)

	_, err = svc.ToggleMission(ctx, missions[0].ID, 0)
	require.ErrorIs(t, err, ErrUserNotFound)

	rows, err := store.ListMissions(ctx, 99, easyDay)
	require.NoError(t, err)
	assert.False(t, rows[0].IsCompleted)
	_, total, err := store.ListPointLogs(ctx, 99, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
