package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/database"
	"github.com/javajoker/certportal-backend/internal/i18n"
	"github.com/javajoker/certportal-backend/internal/metrics"
	"github.com/javajoker/certportal-backend/internal/router"
	"github.com/javajoker/certportal-backend/internal/store"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "AdminPass123!"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// fieldErrors decodes the per-field details of a validation error.
func (r apiResponse) fieldErrors(t *testing.T) []map[string]string {
	t.Helper()
	require.NotNil(t, r.Error)
	var fields []map[string]string
	require.NoError(t, json.Unmarshal(r.Error.Details, &fields))
	return fields
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.MemoryStore
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{MaxBodyBytes: 10 * 1024},
		JWT: config.JWTConfig{
			SecretKey:       "api-test-secret",
			Issuer:          "certportal-test",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
		Upload: config.UploadConfig{
			Dir:               t.TempDir(),
			PublicURL:         "http://localhost:5000/uploads",
			MaxFileSize:       1024 * 1024,
			MaxFiles:          5,
			AllowedExtensions: []string{".pdf", ".jpg", ".jpeg", ".png"},
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{Requests: 1000, Window: time.Minute, AuthRequests: 1000},
		Admin:     config.AdminConfig{Name: "District Admin", Email: adminEmail, Password: adminPassword},
		Frontend:  config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize(""))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig(t)
	memory := store.NewMemoryStore()
	_, err := database.SeedInitialData(ctx, memory, cfg.Admin)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	r, err := router.Initialize(ctx, cfg, router.Dependencies{
		Store:    memory,
		Metrics:  metrics.New(registry),
		Gatherer: registry,
	})
	require.NoError(t, err)

	return &testServer{t: t, router: r, store: memory}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && json.Valid(w.Body.Bytes()) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// login returns an access token for the given credentials.
func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var auth struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &auth))
	return auth.AccessToken
}

// registerCitizen creates an account and returns its access token.
func (s *testServer) registerCitizen(name, email string) string {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "TestPass123!",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(s.t, json.Unmarshal(resp.Data, &auth))
	return auth.AccessToken
}
