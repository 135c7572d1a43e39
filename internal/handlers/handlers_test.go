package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leadcapture/internal/auth"
	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/database"
	"leadcapture/internal/database/databasetest"
	"leadcapture/internal/mail"
	"leadcapture/internal/platform/storage"
	puser "leadcapture/internal/platform/user"
)

type stubGateway struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGateway) SubmitLead(ctx context.Context, lead crm.LeadPayload) (*crm.Submission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &crm.Submission{ID: "00Qstub0000000001", Success: true}, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []*mail.Email
}

func (m *recordingMailer) SendMail(ctx context.Context, e *mail.Email) error {
	return m.SendTemplatedMail(ctx, e)
}

func (m *recordingMailer) SendTemplatedMail(ctx context.Context, e *mail.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, e)
	return nil
}

type memoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memoryStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryStorage) Set(key string, val []byte, exp time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *memoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string][]byte{}
	return nil
}

func (s *memoryStorage) Close() error { return nil }

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	cfg     *config.Config
	gateway *stubGateway
	mailer  *recordingMailer
	files   *memoryStorage
}

type envOption func(*config.Config, *Dependencies)

func withStorage(files *memoryStorage) envOption {
	return func(cfg *config.Config, deps *Dependencies) {
		deps.Storage = storage.NewStorageService(files, "https://files.example.com")
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Environment:             config.EnvProduction,
		JWTSecret:               "test-secret",
		TokenTTL:                time.Hour,
		CRMTimeout:              5 * time.Second,
		GeneratedPasswordLength: 12,
		CredentialsTemplate:     "loan-application-credentials",
		NextStepURL:             "/dashboard",
		EstimatedProcessingTime: "24-48 hours",
	}

	env := &testEnv{
		db:      databasetest.New(t),
		cfg:     cfg,
		gateway: &stubGateway{},
		mailer:  &recordingMailer{},
		files:   &memoryStorage{data: map[string][]byte{}},
	}

	deps := Dependencies{
		Config: cfg,
		DB:     env.db,
		Logger: zap.NewNop(),
		CRM:    env.gateway,
		Mailer: env.mailer,
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	env.app = New(deps)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string, role database.Role) (*database.User, string) {
	t.Helper()

	u, err := puser.NewService(e.db).Create(context.Background(), puser.CreateInput{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)

	token, err := auth.GenerateJWT(e.cfg.JWTSecret, u, time.Hour)
	require.NoError(t, err)

	return u, token
}

// do sends a JSON request and decodes the JSON response body.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "GET", "/health", nil, "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Financial Lead Capture API is running", body["message"])
}

func TestRobotsAndFallback(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/robots.txt", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(raw), "Disallow: /")

	status, body := env.do(t, "GET", "/api/nope", nil, "")
	assert.Equal(t, 404, status)
	assert.Equal(t, false, body["success"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "GET", "/health", nil, "")

	resp, err := env.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(raw), "leadcapture_http_requests_total")
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name    string
		input   map[string]any
		status  int
		message string
	}{
		{"valid", map[string]any{"name": "Jane Doe", "email": "Jane@Example.com", "phone": "555-0100", "password": "secret1"}, 200, "User registered successfully"},
		{"duplicate email", map[string]any{"name": "Jane Again", "email": "jane@example.com", "password": "secret1"}, 409, "An account with this email already exists"},
		{"missing name", map[string]any{"email": "a@example.com", "password": "secret1"}, 400, "Name, email, and password are required"},
		{"invalid email", map[string]any{"name": "A", "email": "not-an-email", "password": "secret1"}, 400, "Please enter a valid email address"},
		{"short password", map[string]any{"name": "A", "email": "a@example.com", "password": "12345"}, 400, "Password must be at least 6 characters long"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.do(t, "POST", "/api/register", tc.input, "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, body["message"])
		})
	}

	u, err := puser.NewService(env.db).GetUserByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, database.RoleUser, u.Role)
}

func TestRegisterIgnoresRole(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/register", map[string]any{
		"name": "Mallory", "email": "mallory@example.com", "password": "secret1", "role": "admin",
	}, "")
	require.Equal(t, 200, status)

	user := dataOf(t, body)["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "passwordHash")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	active, _ := env.createUser(t, "active@example.com", database.RoleUser)
	inactive, _ := env.createUser(t, "inactive@example.com", database.RoleUser)
	_, err := puser.NewService(env.db).Deactivate(context.Background(), inactive.ID)
	require.NoError(t, err)

	status, body := env.do(t, "POST", "/api/login", map[string]any{"email": "ACTIVE@example.com", "password": "secret123"}, "")
	require.Equal(t, 200, status)
	assert.Equal(t, "Login successful", body["message"])

	token, _ := dataOf(t, body)["token"].(string)
	claims, err := auth.VerifyJWT(env.cfg.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, active.ID.String(), claims.UserID)

	refreshed, err := puser.NewService(env.db).GetUserByID(context.Background(), active.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastLoginAt)

	testCases := []struct {
		name   string
		input  map[string]any
		status int
	}{
		{"missing password", map[string]any{"email": "active@example.com"}, 400},
		{"wrong password", map[string]any{"email": "active@example.com", "password": "nope123"}, 401},
		{"unknown email", map[string]any{"email": "ghost@example.com", "password": "secret123"}, 401},
		{"deactivated", map[string]any{"email": "inactive@example.com", "password": "secret123"}, 401},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.do(t, "POST", "/api/login", tc.input, "")
			assert.Equal(t, tc.status, status)
			if tc.status == 401 {
				assert.Equal(t, "Invalid email or password", body["message"])
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.createUser(t, "verify@example.com", database.RoleUser)

	status, body := env.do(t, "GET", "/api/verify-token", nil, "")
	assert.Equal(t, 401, status)
	assert.Equal(t, "Access token required", body["message"])

	status, body = env.do(t, "GET", "/api/verify-token", nil, "not-a-jwt")
	assert.Equal(t, 403, status)
	assert.Equal(t, "Invalid or expired token", body["message"])

	expired, err := auth.GenerateJWT(env.cfg.JWTSecret, u, -time.Minute)
	require.NoError(t, err)
	status, _ = env.do(t, "GET", "/api/verify-token", nil, expired)
	assert.Equal(t, 403, status)

	status, body = env.do(t, "GET", "/api/verify-token", nil, token)
	require.Equal(t, 200, status)
	user := dataOf(t, body)["user"].(map[string]any)
	assert.Equal(t, u.ID.String(), user["id"])
	assert.Equal(t, "verify@example.com", user["email"])
}

func TestMeRoutes(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/submit-lead", validApplication("me@example.com"), "")
	require.Equal(t, 200, status, body)

	u, err := puser.NewService(env.db).GetUserByEmail(context.Background(), "me@example.com")
	require.NoError(t, err)
	token, err := auth.GenerateJWT(env.cfg.JWTSecret, u, time.Hour)
	require.NoError(t, err)

	status, body = env.do(t, "GET", "/api/me/leads", nil, token)
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 1)

	status, body = env.do(t, "GET", "/api/me/accounts", nil, token)
	require.Equal(t, 200, status)
	assert.Len(t, body["data"], 1)

	status, _ = env.do(t, "GET", "/api/me/leads", nil, "")
	assert.Equal(t, 401, status)
}
