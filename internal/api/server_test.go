package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/metrics"
	"github.com/cds-scoring-engine/internal/service"
)

type testConfigManager struct {
	cfg *domain.Config
}

func newTestConfig() *domain.Config {
	return &domain.Config{
		Environment: "test",
		Server: domain.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Cache:   domain.CacheConfig{Backend: domain.CacheBackendNone},
		Logging: domain.LoggingConfig{Level: "error", Format: "text"},
		Metrics: domain.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func (m *testConfigManager) GetConfig() *domain.Config                 { return m.cfg }
func (m *testConfigManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.cfg.Database }
func (m *testConfigManager) GetServerConfig() *domain.ServerConfig     { return &m.cfg.Server }
func (m *testConfigManager) GetCacheConfig() *domain.CacheConfig       { return &m.cfg.Cache }
func (m *testConfigManager) Reload() error                             { return nil }
func (m *testConfigManager) Validate() error                           { return nil }
func (m *testConfigManager) GetDatabaseConnectionString() string       { return "" }
func (m *testConfigManager) GetRedisConnectionString() string          { return "" }
func (m *testConfigManager) IsProduction() bool                        { return false }
func (m *testConfigManager) IsDevelopment() bool                       { return false }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestServer(t *testing.T, cfg *domain.Config, opts ...Option) *Server {
	t.Helper()
	logger := quietLogger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	srv, err := NewServer(&testConfigManager{cfg: cfg}, service.NewAssessmentService(logger), opts...)
	require.NoError(t, err)
	return srv
}

func newFeedbackStore(t *testing.T) *feedback.SQLiteStore {
	t.Helper()
	store, err := feedback.NewSQLiteStore(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, newTestConfig())

	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestHealthDegraded(t *testing.T) {
	srv := newTestServer(t, newTestConfig(), WithHealthCheck("cache", func(context.Context) error {
		return assert.AnError
	}))

	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, assert.AnError.Error(), body.Checks["cache"])
}

func TestAssessmentEndpoints(t *testing.T) {
	srv := newTestServer(t, newTestConfig())

	tests := []struct {
		name     string
		path     string
		body     string
		analyzer domain.AnalyzerKind
		field    string
		want     string
	}{
		{
			name:     "adherence",
			path:     "/api/v1/adherence/predict",
			body:     `{"age":70,"medication_count":2,"side_effects_severity":1,"social_support_score":4,"previous_adherence_rate":0.9,"reminder_frequency":2}`,
			analyzer: domain.AnalyzerAdherence,
			field:    "risk_level",
			want:     "medium",
		},
		{
			name:     "health risk",
			path:     "/api/v1/risk/assess",
			body:     `{"age":30,"bmi":22,"blood_pressure":{"systolic":120,"diastolic":80},"cholesterol":180,"smoking_status":true,"diabetes_history":false}`,
			analyzer: domain.AnalyzerHealthRisk,
			field:    "overall_risk",
			want:     "medium",
		},
		{
			name:     "interactions",
			path:     "/api/v1/interactions/check",
			body:     `{"medications":["Warfarin","Aspirin"]}`,
			analyzer: domain.AnalyzerDrugInteraction,
			field:    "has_interactions",
		},
		{
			name:     "symptoms",
			path:     "/api/v1/symptoms/analyze",
			body:     `{"symptoms":["chest pain"],"patient_history":{"age":60}}`,
			analyzer: domain.AnalyzerSymptom,
			field:    "urgency_level",
			want:     "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv.Handler(), http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var body struct {
				CorrelationID string              `json:"correlation_id"`
				Analyzer      domain.AnalyzerKind `json:"analyzer"`
				InputDigest   string              `json:"input_digest"`
				Result        map[string]any      `json:"result"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.analyzer, body.Analyzer)
			assert.NotEmpty(t, body.InputDigest)
			assert.Equal(t, w.Header().Get("X-Correlation-ID"), body.CorrelationID)
			require.Contains(t, body.Result, tt.field)
			if tt.want != "" {
				assert.Equal(t, tt.want, body.Result[tt.field])
			} else {
				assert.Equal(t, true, body.Result[tt.field])
			}
		})
	}
}

func TestAssessmentErrors(t *testing.T) {
	srv := newTestServer(t, newTestConfig())

	tests := []struct {
		name    string
		path    string
		body    string
		code    string
		details string
	}{
		{
			name: "malformed json",
			path: "/api/v1/symptoms/analyze",
			body: `{"symptoms":`,
			code: domain.ErrCodeInvalidInput,
		},
		{
			name:    "missing field",
			path:    "/api/v1/interactions/check",
			body:    `{}`,
			code:    domain.ErrCodeValidation,
			details: "medications",
		},
		{
			name:    "missing nested field",
			path:    "/api/v1/risk/assess",
			body:    `{"age":30,"bmi":22,"blood_pressure":{"systolic":120},"cholesterol":180,"smoking_status":true,"diabetes_history":false}`,
			code:    domain.ErrCodeValidation,
			details: "blood_pressure.diastolic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv.Handler(), http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body domain.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.CorrelationID)
			if tt.details != "" {
				assert.Equal(t, tt.details, body.Details)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	srv := newTestServer(t, newTestConfig(), WithMetrics(collector))

	doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/interactions/check", `{"medications":["Warfarin","Aspirin"]}`)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/v1/interactions/check"`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := newTestConfig()
	cfg.Metrics.Enabled = false
	srv := newTestServer(t, cfg, WithMetrics(metrics.NewCollector(prometheus.NewRegistry())))

	w := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimit = domain.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	srv := newTestServer(t, cfg)

	first := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	second := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestNewServerRejectsBadRateLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimit = domain.RateLimitConfig{Enabled: true}

	_, err := NewServer(&testConfigManager{cfg: cfg}, service.NewAssessmentService(quietLogger()), WithLogger(quietLogger()))

	assert.Error(t, err)
}

func TestFeedbackEndpoints(t *testing.T) {
	srv := newTestServer(t, newTestConfig(), WithFeedbackStore(newFeedbackStore(t)))
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/v1/feedback",
		`{"analyzer":"interactions","input_digest":"abc123","suggested_level":"severe","clinician_level":"Moderate","notes":"dose adjusted"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created feedback.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.AnalyzerDrugInteraction, created.Analyzer)
	assert.Equal(t, "moderate", created.ClinicianLevel)
	assert.False(t, created.Agreed)

	w = doJSON(t, h, http.MethodGet, "/api/v1/feedback/"+jsonInt(created.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched feedback.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "dose adjusted", fetched.Notes)

	w = doJSON(t, h, http.MethodGet, "/api/v1/feedback?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Feedback []feedback.Feedback `json:"feedback"`
		Total    int                 `json:"total"`
		Limit    int                 `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Feedback, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)
}

func TestFeedbackErrors(t *testing.T) {
	srv := newTestServer(t, newTestConfig(), WithFeedbackStore(newFeedbackStore(t)))
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown level", http.MethodPost, "/api/v1/feedback", `{"analyzer":"symptom","input_digest":"d","suggested_level":"severe","clinician_level":"low"}`, http.StatusBadRequest, domain.ErrCodeValidation},
		{"unknown analyzer", http.MethodPost, "/api/v1/feedback", `{"analyzer":"genomics","input_digest":"d","suggested_level":"low","clinician_level":"low"}`, http.StatusBadRequest, domain.ErrCodeValidation},
		{"malformed body", http.MethodPost, "/api/v1/feedback", `{"analyzer":`, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"bad limit", http.MethodGet, "/api/v1/feedback?limit=0", "", http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"bad offset", http.MethodGet, "/api/v1/feedback?offset=-1", "", http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"bad id", http.MethodGet, "/api/v1/feedback/abc", "", http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"missing id", http.MethodGet, "/api/v1/feedback/999", "", http.StatusNotFound, domain.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			var body domain.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestFeedbackRoutesRequireStore(t *testing.T) {
	srv := newTestServer(t, newTestConfig())

	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/feedback", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssessmentStream(t *testing.T) {
	srv := newTestServer(t, newTestConfig())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"X-Correlation-ID": []string{"stream-1"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(StreamRequest{
		ID:       "1",
		Analyzer: "interactions",
		Input:    json.RawMessage(`{"medications":["Warfarin","Aspirin"]}`),
	}))
	var ok struct {
		ID       string `json:"id"`
		Response struct {
			CorrelationID string              `json:"correlation_id"`
			Analyzer      domain.AnalyzerKind `json:"analyzer"`
			Result        map[string]any      `json:"result"`
		} `json:"response"`
	}
	require.NoError(t, conn.ReadJSON(&ok))
	assert.Equal(t, "1", ok.ID)
	assert.Equal(t, "stream-1", ok.Response.CorrelationID)
	assert.Equal(t, domain.AnalyzerDrugInteraction, ok.Response.Analyzer)
	assert.Equal(t, true, ok.Response.Result["has_interactions"])

	require.NoError(t, conn.WriteJSON(StreamRequest{ID: "2", Analyzer: "genomics", Input: json.RawMessage(`{}`)}))
	var failed StreamResponse
	require.NoError(t, conn.ReadJSON(&failed))
	assert.Equal(t, "2", failed.ID)
	require.NotNil(t, failed.Error)
	assert.Equal(t, domain.ErrCodeInvalidInput, failed.Error.Code)

	require.NoError(t, conn.WriteJSON(StreamRequest{ID: "3", Analyzer: "symptom", Input: json.RawMessage(`{"patient_history":{}}`)}))
	failed = StreamResponse{}
	require.NoError(t, conn.ReadJSON(&failed))
	require.NotNil(t, failed.Error)
	assert.Equal(t, domain.ErrCodeValidation, failed.Error.Code)
	assert.Equal(t, "symptoms", failed.Error.Details)
}

func TestAssessmentStreamRejectsOrigin(t *testing.T) {
	cfg := newTestConfig()
	cfg.Server.AllowedOrigins = []string{"https://clinic.example"}
	srv := newTestServer(t, cfg)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func jsonInt(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
