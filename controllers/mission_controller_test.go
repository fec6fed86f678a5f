package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/missions/config"
	"github.com/studyhub/missions/middleware"
	"github.com/studyhub/missions/models"
	"github.com/studyhub/missions/services"
)

// fixedNow is a day of month divisible by three, so EASY templates apply.
var fixedNow = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

func setupMissionRouter(t *testing.T) (*gin.Engine, *services.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.Defaults())

	store := services.NewMemoryStore()
	_, err := store.AddTemplates(context.Background(), []models.MissionTemplate{
		{Slug: "easy-review", Text: "Review notes", Type: "study", Difficulty: models.DifficultyEasy, TargetValue: 15},
		{Slug: "easy-read", Text: "Read a chapter", Type: "reading", Difficulty: models.DifficultyEasy, TargetValue: 20},
	})
	require.NoError(t, err)
	store.PutUser(models.User{ID: 1, Username: "alice"})
	store.PutUser(models.User{ID: 2, Username: "bob"})

	svc := services.NewMissionService(store, store)
	c := NewMissionController(svc, func() time.Time { return fixedNow })

	r := gin.New()
	// Stand-in for the JWT middleware: X-User carries an authenticated id.
	r.Use(func(ctx *gin.Context) {
		if id := ctx.GetHeader("X-User"); id == "1" {
			ctx.Set(middleware.ContextUserIDKey, uint(1))
			ctx.Set(middleware.ContextUsernameKey, "alice")
		}
		ctx.Next()
	})
	r.GET("/api/v1/missions/:userId", c.GetTodayMissions)
	r.PUT("/api/v1/missions/:missionId", c.ToggleMission)
	return r, store
}

func doRequest(r http.Handler, method, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type missionWire struct {
	ID            uint   `json:"id"`
	UserID        uint   `json:"user_id"`
	Text          string `json:"text"`
	Type          string `json:"type"`
	TargetMinutes int    `json:"target_minutes"`
	IsCompleted   bool   `json:"is_completed"`
	MissionDate   string `json:"mission_date"`
}

func TestGetTodayMissionsReturnsRawArray(t *testing.T) {
	r, _ := setupMissionRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/missions/1")
	require.Equal(t, http.StatusOK, w.Code)

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 2)
	assert.ElementsMatch(t,
		[]string{"id", "user_id", "text", "type", "target_minutes", "is_completed", "mission_date"},
		keys(raw[0]))

	var missions []missionWire
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &missions))
	assert.Equal(t, "2026-03-03", missions[0].MissionDate)
	assert.Equal(t, "Review notes", missions[0].Text)
	assert.Equal(t, 15, missions[0].TargetMinutes)
	assert.False(t, missions[0].IsCompleted)

	again := doRequest(r, http.MethodGet, "/api/v1/missions/1")
	assert.JSONEq(t, w.Body.String(), again.Body.String())
}

func TestGetTodayMissionsEmptyCatalogIs404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := services.NewMemoryStore()
	c := NewMissionController(services.NewMissionService(store, store), func() time.Time { return fixedNow })
	r := gin.New()
	r.GET("/api/v1/missions/:userId", c.GetTodayMissions)

	w := doRequest(r, http.MethodGet, "/api/v1/missions/1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40420`)
	assert.Contains(t, w.Body.String(), "EASY")
}

func TestGetTodayMissionsRejectsBadIDAndOtherUsers(t *testing.T) {
	r, _ := setupMissionRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/missions/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/missions/2", "X-User", "1")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestToggleMissionResponseShape(t *testing.T) {
	r, store := setupMissionRouter(t)
	require.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/v1/missions/1").Code)
	rows, err := store.ListMissions(context.Background(), 1, fixedNow)
	require.NoError(t, err)
	path := "/api/v1/missions/" + itoa(rows[0].ID)

	w := doRequest(r, http.MethodPut, path)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Message     string `json:"message"`
		NewStatus   bool   `json:"newStatus"`
		PointsAdded int    `json:"pointsAdded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Message)
	assert.True(t, body.NewStatus)
	assert.Equal(t, 50, body.PointsAdded)

	w = doRequest(r, http.MethodPut, path)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.NewStatus)
	assert.Equal(t, -50, body.PointsAdded)
}

func TestToggleMissionErrors(t *testing.T) {
	r, store := setupMissionRouter(t)

	w := doRequest(r, http.MethodPut, "/api/v1/missions/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40410`)

	w = doRequest(r, http.MethodPut, "/api/v1/missions/0")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/v1/missions/2").Code)
	rows, err := store.ListMissions(context.Background(), 2, fixedNow)
	require.NoError(t, err)
	w = doRequest(r, http.MethodPut, "/api/v1/missions/"+itoa(rows[0].ID), "X-User", "1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	user, err := store.GetUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, user.Points)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestGetTodayMissionsLockContention(t *testing.T) {
	_, store := setupMissionRouter(t)
	locker := services.NewLocalLocker()
	svc := services.NewMissionService(store, store, services.WithLocker(locker))
	r := gin.New()
	r.GET("/api/v1/missions/:userId", NewMissionController(svc, func() time.Time { return fixedNow }).GetTodayMissions)

	release, err := locker.Acquire(context.Background(), "missions:alloc:1:2026-03-03")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/missions/1", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":50310`)
}
