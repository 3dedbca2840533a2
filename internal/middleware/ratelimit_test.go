package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(max, window, newTestLogger())
	t.Cleanup(rl.Stop)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.1.1.1"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "keys are independent")

	*now = now.Add(30 * time.Second)
	assert.Equal(t, 30*time.Second, rl.TimeUntilReset("1.1.1.1"))

	*now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "window expired")
}

func TestRateLimiter_Failures(t *testing.T) {
	rl, now := newTestLimiter(t, 2, time.Minute)

	assert.False(t, rl.Exhausted("ip"))
	rl.RecordFailure("ip")
	assert.False(t, rl.Exhausted("ip"))
	rl.RecordFailure("ip")
	assert.True(t, rl.Exhausted("ip"))
	assert.True(t, rl.Exhausted("ip"), "checking does not count")

	rl.Reset("ip")
	assert.False(t, rl.Exhausted("ip"))
	assert.Zero(t, rl.TimeUntilReset("ip"))

	rl.RecordFailure("ip")
	rl.RecordFailure("ip")
	*now = now.Add(2 * time.Minute)
	assert.False(t, rl.Exhausted("ip"))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	h := NewRateLimitMiddleware(rl, nil, newTestLogger()).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/evidence/photos", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send(nil).Code)
	assert.Equal(t, http.StatusCreated, send(nil).Code)

	rec := send(nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Equal(t, 60, retry)
	assert.Contains(t, rec.Body.String(), `"code":"rate_limit"`)

	// Forwarding headers from an untrusted peer do not open a new window.
	assert.Equal(t, http.StatusTooManyRequests, send(map[string]string{"X-Forwarded-For": "203.0.113.9"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(map[string]string{"X-Real-IP": "198.51.100.4"}).Code)
}
