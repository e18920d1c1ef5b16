package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

func TestLimiterPoolIsPerViewer(t *testing.T) {
	p := NewLimiterPool(0.001, 2)

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("a"))
	assert.False(t, p.Allow("a"))
	assert.True(t, p.Allow("b"))
}

func TestLimiterMiddleware(t *testing.T) {
	p := NewLimiterPool(0.001, 1)
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/c/messages", nil)
	req = req.WithContext(WithViewer(req.Context(), models.Viewer{ID: "doc-1", Role: models.RoleClinician}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestLimiterPoolDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	p := NewLimiterPool(1, 2)
	p.now = func() time.Time { return clock }

	assert.True(t, p.Allow("a"))
	assert.True(t, p.Allow("b"))
	assert.Equal(t, 2, p.Len())

	clock = clock.Add(5 * time.Minute)
	assert.True(t, p.Allow("b"))
	assert.Equal(t, 2, p.Len())

	// a has been idle for the whole window, b only half of it
	clock = clock.Add(5 * time.Minute)
	assert.True(t, p.Allow("c"))
	assert.Equal(t, 2, p.Len())

	clock = clock.Add(LimiterIdleTTL)
	assert.True(t, p.Allow("c"))
	assert.Equal(t, 1, p.Len())
}

func TestLimiterPoolKeepsBucketsUntilRefilled(t *testing.T) {
	clock := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	p := NewLimiterPool(0.001, 1)
	p.now = func() time.Time { return clock }

	assert.True(t, p.Allow("a"))
	assert.False(t, p.Allow("a"))

	// one token takes 1000s to come back, longer than the idle window
	clock = clock.Add(LimiterIdleTTL + time.Second)
	assert.True(t, p.Allow("b"))
	assert.False(t, p.Allow("a"))
	assert.Equal(t, 2, p.Len())
}
