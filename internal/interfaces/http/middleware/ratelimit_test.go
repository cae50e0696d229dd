package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Close)

	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	limiter.mu.Lock()
	limiter.now = func() time.Time { return now }
	limiter.mu.Unlock()
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("client"))
		assert.False(t, limiter.Allow("client"))

		limiter.mu.Lock()
		*now = now.Add(time.Minute)
		limiter.mu.Unlock()

		assert.True(t, limiter.Allow("client"))
	})

	t.Run("remaining returns correct count", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("client"))
		limiter.Allow("client")
		limiter.Allow("client")
		assert.Equal(t, 3, limiter.Remaining("client"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Close()
		assert.NotPanics(t, limiter.Close)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/files/download", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/files/download", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if i == 0 {
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
		}
		if i == 2 {
			assert.Contains(t, w.Body.String(), "ERR_TOO_MANY_REQUESTS")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
