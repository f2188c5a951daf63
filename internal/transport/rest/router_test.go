package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbackdesk/internal/cache"
	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository/memory"
	"feedbackdesk/internal/service"
	"feedbackdesk/internal/transport/ws"
)

type testServer struct {
	*httptest.Server
	auth      *service.AuthService
	dashboard *service.DashboardService
	logs      *lockedBuffer
}

// lockedBuffer collects log output written from server goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	m := metrics.New()
	hub := ws.NewHub(logger)
	t.Cleanup(hub.Close)

	questions := memory.NewQuestionRepo()
	responses := memory.NewResponseRepo()
	settings := memory.NewSettingsRepo()

	authSvc := service.NewAuthService("admin", "secret", "test-signing-key")
	schema := service.NewSchemaService(questions)
	gate := service.NewGate(settings, model.DefaultAccessPIN)
	dashboardSvc := service.NewDashboardService(schema, gate, responses, cache.NewMemoryDashboardCache(), hub, m, logger, 8, 4)
	intakeSvc := service.NewIntakeService(schema, gate, responses, cache.NewMemorySessionCache(time.Hour), dashboardSvc, m, logger)
	adminSvc := service.NewAdminService(questions, schema, gate, dashboardSvc, m, logger)
	exportSvc := service.NewExportService(schema, responses)

	srv := httptest.NewServer(NewRouter(&Container{
		AuthService:      authSvc,
		IntakeService:    intakeSvc,
		DashboardService: dashboardSvc,
		AdminService:     adminSvc,
		ExportService:    exportSvc,
		WSHub:            hub,
		Metrics:          m,
		Logger:           logger,
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(dashboardSvc.Wait)

	return &testServer{Server: srv, auth: authSvc, dashboard: dashboardSvc, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["token"].(string)
}

func sessionOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	session, ok := body["session"].(map[string]interface{})
	require.True(t, ok, "response has no session: %v", body)
	return session
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := srv.do(t, http.MethodOptions, "/v1/admin/questions", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestIntakeFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := sessionOf(t, body)
	assert.Equal(t, "locked", session["state"])
	assert.Len(t, body["controls"], 5)
	id := session["id"].(string)

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/access", "", map[string]interface{}{"pin": "wrong"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.MsgPINInvalid, sessionOf(t, body)["accessError"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/access", "", map[string]interface{}{"pin": model.DefaultAccessPIN, "live": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", sessionOf(t, body)["state"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/submit", "", map[string]interface{}{
		"answers": map[string]interface{}{"q1": 9},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, service.MsgFormOutdated, body["error"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/submit", "", map[string]interface{}{
		"answers": map[string]interface{}{"q1": 9, "q2": "", "q3": 5, "q4": 5, "q5": "x"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, service.MsgRequiredMissing, body["error"])
	assert.Equal(t, "q2", body["questionId"])
	assert.Equal(t, "ready", sessionOf(t, body)["state"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/submit", "", map[string]interface{}{
		"answers": map[string]interface{}{"q1": 9, "q2": "8", "q3": 10, "q4": 7, "q5": "Más música"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["accepted"])
	assert.NotEmpty(t, body["responseId"])
	assert.Equal(t, "sent", sessionOf(t, body)["state"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/submit", "", map[string]interface{}{"answers": map[string]interface{}{}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["accepted"])
	assert.Equal(t, service.MsgAlreadySent, sessionOf(t, body)["error"])

	resp, body = srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/reset", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "locked", sessionOf(t, body)["state"])

	srv.dashboard.Wait()
	token := srv.adminToken(t)
	resp, body = srv.do(t, http.MethodGet, "/v1/admin/dashboard?search=M%C3%BASICA", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["totalResponses"])
	assert.Len(t, body["comments"], 1)
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodGet, "/v1/sessions/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.MsgSessionNotFound, body["error"])
}

func TestEndSession(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := sessionOf(t, body)["id"].(string)

	resp, _ = srv.do(t, http.MethodDelete, "/v1/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = srv.do(t, http.MethodGet, "/v1/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.MsgSessionNotFound, body["error"])
}

func TestInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/auth/login", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t)
	resp, body := srv.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, service.MsgLoginFailed, body["error"])
}

func TestAdminRoutesRequireAdminClaim(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodGet, "/v1/admin/questions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	userToken, err := srv.auth.IssueToken("viewer", false)
	require.NoError(t, err)
	resp, _ = srv.do(t, http.MethodGet, "/v1/admin/questions", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestQuestionAdministration(t *testing.T) {
	srv := newTestServer(t)
	token := srv.adminToken(t)

	resp, body := srv.do(t, http.MethodPost, "/v1/admin/questions", token, map[string]interface{}{"text": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, service.MsgQuestionTextRequired, body["error"])

	resp, body = srv.do(t, http.MethodPost, "/v1/admin/questions", token, map[string]interface{}{"text": "Otra", "type": "choice"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, service.MsgInvalidType, body["error"])

	resp, body = srv.do(t, http.MethodPost, "/v1/admin/questions", token, map[string]interface{}{"id": "q6", "text": "¿Volverías?", "order": 6})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, service.MsgQuestionSaved, body["message"])

	resp, body = srv.do(t, http.MethodPost, "/v1/admin/questions", token, map[string]interface{}{"id": "q6", "text": "Duplicada", "type": "text"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, service.MsgQuestionExists, body["error"])

	resp, body = srv.do(t, http.MethodPatch, "/v1/admin/questions/q6", token, map[string]interface{}{"scaleMax": 99})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	question := body["question"].(map[string]interface{})
	assert.EqualValues(t, model.MaxScaleMax, question["scaleMax"])

	resp, body = srv.do(t, http.MethodDelete, "/v1/admin/questions/q6", token, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.Equal(t, service.MsgDeleteConfirm, body["error"])

	resp, _ = srv.do(t, http.MethodDelete, "/v1/admin/questions/q6?confirm=true", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = srv.do(t, http.MethodPatch, "/v1/admin/questions/nope", token, map[string]interface{}{"required": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, service.MsgQuestionMissing, body["error"])
}

func TestAdminActionsAreAudited(t *testing.T) {
	srv := newTestServer(t)
	token, err := srv.auth.IssueToken("admin_ops", true)
	require.NoError(t, err)

	resp, _ := srv.do(t, http.MethodPost, "/v1/admin/questions", token, map[string]interface{}{"id": "q7", "text": "Extra", "type": "text"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodDelete, "/v1/admin/questions/q7?confirm=true", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodPut, "/v1/admin/access-pin", token, map[string]string{"new": "NUEVO1", "confirm": "NUEVO1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logs := srv.logs.String()
	assert.Contains(t, logs, "admin=admin_ops action=create_question question=q7")
	assert.Contains(t, logs, "admin=admin_ops action=delete_question question=q7")
	assert.Contains(t, logs, "admin=admin_ops action=change_access_pin")
}

func TestChangeAccessPIN(t *testing.T) {
	srv := newTestServer(t)
	token := srv.adminToken(t)

	resp, body := srv.do(t, http.MethodPut, "/v1/admin/access-pin", token, map[string]string{"new": "ab", "confirm": "ab"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, service.MsgPINTooShort, body["error"])

	resp, body = srv.do(t, http.MethodPut, "/v1/admin/access-pin", token, map[string]string{"new": "NUEVO1", "confirm": "NUEVO1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.MsgPINUpdated, body["message"])

	resp, body = srv.do(t, http.MethodPut, "/v1/admin/access-pin", token, map[string]string{"current": "FCHN2025", "new": "OTRO22", "confirm": "OTRO22"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, service.MsgPINCurrentMismatch, body["error"])
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	token := srv.adminToken(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/admin/export.csv", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="respuestas.csv"`, resp.Header.Get("Content-Disposition"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "q1,q2,q3,q4,q5,createdAt\n", string(data))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/health", "", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `feedbackdesk_http_requests_total{method="GET",path="/health",status_code="200"}`)
}
