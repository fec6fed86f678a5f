package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitPerMinuteBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerMinute(4))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	// Burst is half the per-minute budget.
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitKeysAuthenticatedUsersSeparately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if u := ctx.GetHeader("X-User"); u != "" {
			ctx.Set(ContextUserIDKey, uint(len(u)))
		}
		ctx.Next()
	})
	r.Use(RateLimitPerMinute(2))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	hit := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusNoContent, hit("bb"))
	assert.Equal(t, http.StatusNoContent, hit(""))
}
