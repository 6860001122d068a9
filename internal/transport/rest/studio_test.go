package rest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2400030292/MedGuard-AI/internal/domain"
	"github.com/2400030292/MedGuard-AI/internal/service/verification"
)

func (s *testStack) openStudio(t *testing.T) verification.View {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/studio", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[verification.View](t, rec)
}

func (s *testStack) waitResult(t *testing.T, id string) verification.View {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/studio/"+id+"?wait=result&timeout=5s", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[verification.View](t, rec)
	require.Equal(t, verification.StateResult, view.State)
	return view
}

func (s *testStack) submitManual(t *testing.T, id string, body manualRequest) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/modality", modalityRequest{Modality: domain.ModalityManual})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/manual", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestStudio_Open(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	view := s.openStudio(t)

	assert.Equal(t, verification.StateIdle, view.State)
	assert.Equal(t, domain.ModalityDocument, view.Modality)
	assert.Equal(t, 1, s.studios.Len())
}

func TestStudio_RequiresActor(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	req := httptest.NewRequest(http.MethodPost, "/api/studio", nil)
	req.Header.Set("X-Test-Anonymous", "1")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, s.studios.Len())
}

func TestStudio_OtherRoleForbidden(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/studio/"+id, nil)
		req.Header.Set("X-Test-Role", "regulator")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, method)
	}
	assert.Equal(t, 1, s.studios.Len())

	rec := s.do(t, http.MethodGet, "/api/studio/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStudio_UnknownAndMalformedID(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)

	rec := s.do(t, http.MethodGet, "/api/studio/0b8f7f0e-6a55-4a40-9a45-6d8c1f1f2b11", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/studio/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Contains(t, body.Fields, "id")
}

func TestStudio_ManualPass(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	s.submitManual(t, id, manualRequest{BatchID: "AB-123", ExpiryDate: "2099-12-31", ManufactureDate: "2024-01-01"})
	view := s.waitResult(t, id)

	require.NotNil(t, view.Verdict)
	assert.Equal(t, domain.OutcomePassed, view.Verdict.Outcome)

	require.Eventually(t, func() bool {
		entries, _ := s.activity.List(context.Background())
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := s.activity.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AuditActionManualEntry, entries[0].Action)
	assert.Equal(t, domain.ResultPassed, entries[0].Result)
	assert.Equal(t, "AB-123", entries[0].BatchRef)
	assert.Equal(t, "Pharmacist", entries[0].ActorLabel)

	queued, err := s.quarantine.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queued)

	rec := s.do(t, http.MethodGet, "/api/studio/"+id+"/passport", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	passport := decodeBody[domain.Passport](t, rec)
	assert.NotEmpty(t, passport.Timeline)
}

func TestStudio_ManualFailQuarantines(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	s.submitManual(t, id, manualRequest{BatchID: "bad", ExpiryDate: "2099-12-31"})
	view := s.waitResult(t, id)

	require.NotNil(t, view.Verdict)
	assert.Equal(t, domain.OutcomeFailed, view.Verdict.Outcome)

	require.Eventually(t, func() bool {
		queued, _ := s.quarantine.List(context.Background())
		return len(queued) == 1 && len(s.feed.Recent()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, domain.NotificationCritical, s.feed.Recent()[0].Type)

	// A failed verdict has no passport.
	rec := s.do(t, http.MethodGet, "/api/studio/"+id+"/passport", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/scan-another", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, verification.StateIdle, decodeBody[verification.View](t, rec).State)
}

func TestStudio_ManualNeedsManualModality(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/manual", manualRequest{BatchID: "AB-123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStudio_ManualRejectsNonISODates(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/modality", modalityRequest{Modality: domain.ModalityManual})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/manual", manualRequest{BatchID: "AB-123", ExpiryDate: "31-12-2020"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, "expiryDate")

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/manual", manualRequest{BatchID: "AB-123", ExpiryDate: "2027-01-01", ManufactureDate: "01/01/2026"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, "manufactureDate")

	// Nothing was started.
	rec = s.do(t, http.MethodGet, "/api/studio/"+id, nil)
	assert.Equal(t, verification.StateIdle, decodeBody[verification.View](t, rec).State)
}

func TestStudio_SelectModality_Validation(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/modality", map[string]any{"mode": "qr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/modality", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, "modality")
}

func TestStudio_FailModeEscalation(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	failMode := true
	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/modality", modalityRequest{Modality: domain.ModalityQRImage, FailMode: &failMode})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[verification.View](t, rec)
	assert.True(t, view.FailMode)
	assert.Equal(t, domain.ModalityQRImage, view.Modality)

	rec = uploadFile(t, s, id, "label.png", []byte("not really a png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view = s.waitResult(t, id)
	require.NotNil(t, view.Session)
	require.NotNil(t, view.Session.Preview)
	assert.False(t, view.Session.Preview.Decoded)

	rec = s.do(t, http.MethodGet, "/api/studio/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not really a png", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/quarantine", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, verification.StateIdle, decodeBody[verification.View](t, rec).State)

	// The failed verdict already queued the batch; escalating only adds
	// the audit entry.
	queued, err := s.quarantine.List(context.Background())
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, domain.ReasonVerificationFailed, queued[0].Reason)

	entries, err := s.activity.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	actions := []domain.AuditAction{entries[0].Action, entries[1].Action}
	assert.Contains(t, actions, domain.AuditActionManualQuarantine)
	assert.Contains(t, actions, domain.AuditActionQRScan)
}

func TestStudio_UploadMissingFile(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/studio/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudio_UploadEmptyFile(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := uploadFile(t, s, id, "empty.jpg", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStudio_UploadTooLarge(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := uploadFile(t, s, id, "huge.jpg", bytes.Repeat([]byte{0xff}, 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStudio_CameraSimulated(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	// Without a camera the session falls back to a simulated stream.
	rec := s.do(t, http.MethodPost, "/api/studio/"+id+"/camera", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeBody[verification.View](t, rec)
	assert.Equal(t, verification.StateCapturing, view.State)
	assert.True(t, view.Simulated)

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/camera/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, verification.StateIdle, decodeBody[verification.View](t, rec).State)

	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/camera", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/studio/"+id+"/camera/capture", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view = s.waitResult(t, id)
	require.NotNil(t, view.Session)
	require.NotNil(t, view.Session.Preview)
	assert.True(t, view.Session.Preview.Simulated)

	rec = s.do(t, http.MethodGet, "/api/studio/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestStudio_NoPreviewYet(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodGet, "/api/studio/"+id+"/preview", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudio_LongPollTimeout(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodGet, "/api/studio/"+id+"?wait=result&timeout=20ms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, verification.StateIdle, decodeBody[verification.View](t, rec).State)

	rec = s.do(t, http.MethodGet, "/api/studio/"+id+"?wait=result&timeout=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudio_Delete(t *testing.T) {
	t.Parallel()

	s := newTestStack(t)
	id := s.openStudio(t).ID.String()

	rec := s.do(t, http.MethodDelete, "/api/studio/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/studio/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, s.studios.Len())
}

func uploadFile(t *testing.T, s *testStack, id, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/studio/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}
