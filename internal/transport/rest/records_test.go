package rest

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

func seedQuarantine(t *testing.T, s *testStack, batch string) domain.QuarantineEntry {
	t.Helper()
	e, err := s.quarantine.Append(context.Background(), domain.QuarantineEntry{
		BatchRef:     batch,
		ProductLabel: "Amoxicillin 500mg",
		Reason:       domain.ReasonVerificationFailed,
		DateFiled:    "2024-10-24",
		Officer:      "Quality Officer",
	})
	require.NoError(t, err)
	return e
}

func TestRecords_QuarantineCount(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	seedQuarantine(t, s, "AB-101")
	seedQuarantine(t, s, "AB-102")

	rec := s.do(t, http.MethodGet, "/api/quarantine", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeBody[quarantineView](t, rec)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, domain.ConnectionLive, view.Status)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "AB-102", view.Items[0].BatchRef, "newest first")
}

func TestRecords_EmptyCollectionsAreArrays(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)

	for _, path := range []string{"/api/activity-log", "/api/quarantine"} {
		rec := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"items":[]`, path)
	}

	rec := s.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecords_Resolve(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	e := seedQuarantine(t, s, "AB-101")

	rec := s.do(t, http.MethodPost, "/api/quarantine/"+e.ID.String()+"/resolve", resolveRequest{Status: domain.QuarantineStatusDestroyed})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resolved := decodeBody[domain.QuarantineEntry](t, rec)
	assert.Equal(t, e.ID, resolved.ID)
	assert.Equal(t, domain.QuarantineStatusDestroyed, resolved.Status)

	queued, err := s.quarantine.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queued)

	logged, err := s.activity.List(context.Background())
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, domain.AuditActionQuarantineAction, logged[0].Action)
	assert.Equal(t, "AB-101", logged[0].BatchRef)

	// Already resolved.
	rec = s.do(t, http.MethodPost, "/api/quarantine/"+e.ID.String()+"/resolve", resolveRequest{Status: domain.QuarantineStatusRetest})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_Resolve_Validation(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	e := seedQuarantine(t, s, "AB-101")

	rec := s.do(t, http.MethodPost, "/api/quarantine/"+e.ID.String()+"/resolve", resolveRequest{Status: domain.QuarantineStatusPending})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "oneof", decodeBody[errorResponse](t, rec).Fields["status"])

	rec = s.do(t, http.MethodPost, "/api/quarantine/nope/resolve", resolveRequest{Status: domain.QuarantineStatusReturned})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	queued, err := s.quarantine.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, queued, 1)
}

func TestRecords_RequireActor(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)

	for _, path := range []string{"/api/activity-log", "/api/quarantine", "/api/notifications", "/api/quarantine/stream"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Test-Anonymous", "1")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

// readEvent reads one SSE frame, skipping keep-alive comments.
func readEvent(t *testing.T, r *bufio.Reader) (event string, data []byte) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = []byte(strings.TrimPrefix(line, "data: "))
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestRecords_QuarantineStream(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	seedQuarantine(t, s, "AB-101")

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/quarantine/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)

	event, data := readEvent(t, body)
	assert.Equal(t, "quarantine", event)
	var first quarantineView
	require.NoError(t, json.Unmarshal(data, &first))
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, domain.ConnectionLive, first.Status)

	seedQuarantine(t, s, "AB-102")

	_, data = readEvent(t, body)
	var second quarantineView
	require.NoError(t, json.Unmarshal(data, &second))
	assert.Equal(t, 2, second.Count)
}

func TestRecords_NotificationStream(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)

	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The response only starts once the handler has subscribed.
	require.NoError(t, s.feed.Publish(context.Background(), domain.Notification{
		Type:    domain.NotificationCritical,
		Message: "Batch AB-101 moved to Quarantine",
	}))

	event, data := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "notification", event)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, "Batch AB-101 moved to Quarantine", n.Message)
}
