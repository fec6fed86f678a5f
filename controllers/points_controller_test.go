package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/missions/models"
)

func TestGetPointsSummarizesLedger(t *testing.T) {
	r, store := setupMissionRouter(t)
	p := NewPointsController(store)
	r.GET("/api/v1/users/:userId/points", p.GetPoints)

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/v1/missions/1").Code)
	rows, err := store.ListMissions(context.Background(), 1, fixedNow)
	require.NoError(t, err)
	for _, m := range rows {
		require.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, "/api/v1/missions/"+itoa(m.ID)).Code)
	}

	w := doRequest(r, http.MethodGet, "/api/v1/users/1/points?page=1&page_size=1")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Code int `json:"code"`
		Data struct {
			Points      int `json:"points"`
			StreakCount int `json:"streak_count"`
			Logs        struct {
				Items    []models.PointLog `json:"items"`
				Total    int64             `json:"total"`
				PageSize int               `json:"page_size"`
			} `json:"logs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, 100, body.Data.Points)
	assert.Equal(t, int64(2), body.Data.Logs.Total)
	require.Len(t, body.Data.Logs.Items, 1)
	assert.Equal(t, "Completed Mission: Read a chapter", body.Data.Logs.Items[0].Reason)
}

func TestGetPointsUnknownUser(t *testing.T) {
	r, store := setupMissionRouter(t)
	r.GET("/api/v1/users/:userId/points", NewPointsController(store).GetPoints)

	w := doRequest(r, http.MethodGet, "/api/v1/users/77/points")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":40411`)
}

func TestGetPointsHugePageReturnsEmptyPage(t *testing.T) {
	r, store := setupMissionRouter(t)
	r.GET("/api/v1/users/:userId/points", NewPointsController(store).GetPoints)

	w := doRequest(r, http.MethodGet, "/api/v1/users/1/points?page=461168601842738792&page_size=20")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
	assert.Contains(t, w.Body.String(), `"page":100000`)
}

func TestParsePaginationBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"page=3&page_size=50", 3, 50},
		{"page=-1&page_size=1000", 1, 20},
		{"page=x&page_size=y", 1, 20},
		{"page=461168601842738792&page_size=20", maxPage, 20},
	}
	for _, tc := range cases {
		r := gin.New()
		var page, size int
		r.GET("/", func(ctx *gin.Context) { page, size = parsePagination(ctx, 20, 100) })
		doRequest(r, http.MethodGet, "/?"+tc.query)
		assert.Equal(t, tc.page, page, tc.query)
		assert.Equal(t, tc.size, size, tc.query)
	}
}
