package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(clock, time.Minute)
	t.Cleanup(rl.Stop)
	return rl, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func sendFrom(h http.Handler, addr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/studio", nil)
	req.RemoteAddr = addr
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	h := rl.Limit(5)(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, sendFrom(h, "10.1.0.7:5000").Code, "request %d", i)
	}

	rec := sendFrom(h, "10.1.0.7:5001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "12", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiter_ClientsIndependent(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	h := rl.Limit(2)(okHandler())

	sendFrom(h, "10.1.0.1:1234")
	sendFrom(h, "10.1.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.1.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, sendFrom(h, "10.2.0.1:1234").Code)
}

func TestRateLimiter_Refill(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	h := rl.Limit(60)(okHandler())

	for i := 0; i < 60; i++ {
		sendFrom(h, "10.3.0.3:1234")
	}
	require.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.3.0.3:1234").Code)

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, sendFrom(h, "10.3.0.3:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(h, "10.3.0.3:1234").Code)
}

func TestRateLimiter_LimitsKeepSeparateBuckets(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	login := rl.Limit(1)(okHandler())
	general := rl.Limit(100)(okHandler())

	assert.Equal(t, http.StatusOK, sendFrom(login, "10.9.9.9:4000").Code)
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(login, "10.9.9.9:4000").Code)
	assert.Equal(t, http.StatusOK, sendFrom(general, "10.9.9.9:4000").Code)
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	h := rl.Limit(10)(okHandler())

	sendFrom(h, "10.4.0.4:1234")
	require.Equal(t, 1, rl.size())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(idleBucketTTL + time.Minute)
	assert.Eventually(t, func() bool { return rl.size() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(clockwork.NewFakeClock(), time.Minute)
	rl.Stop()
	rl.Stop()
}
