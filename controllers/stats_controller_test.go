package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatsCountsToday(t *testing.T) {
	r, store := setupMissionRouter(t)
	s := NewStatsController(store, func() time.Time { return fixedNow })
	r.GET("/api/v1/stats", s.GetStats)

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/v1/missions/1").Code)
	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, "/api/v1/missions/1").Code)

	w := doRequest(r, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data missionStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, missionStats{Date: "2026-03-03", Difficulty: "EASY", Generated: 2, Completed: 1}, body.Data)
}
