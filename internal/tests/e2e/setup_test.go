package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/you/missionlog/internal/app"
	"github.com/you/missionlog/internal/config"
	"github.com/you/missionlog/internal/logging"
)

const (
	adminEmail  = "admin@missionlog.test"
	staffDomain = "staff.missionlog.test"
	password    = "secret1"
)

// envelope mirrors the JSON body every endpoint returns
type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// TestServer runs the fully wired service on an in-memory sqlite database
type TestServer struct {
	t         *testing.T
	Container *app.Container
	Server    *httptest.Server
}

type serverOption func(*config.Config)

func withProduction() serverOption {
	return func(cfg *config.Config) {
		cfg.App.Env = config.EnvProduction
		cfg.JWT.Secret = "e2e-production-secret"
	}
}

func withRedis(t *testing.T) serverOption {
	mr := miniredis.RunT(t)
	return func(cfg *config.Config) {
		cfg.OTP.Store = "redis"
		cfg.Redis.Addr = mr.Addr()
	}
}

func withUniformLoginErrors() serverOption {
	return func(cfg *config.Config) { cfg.Auth.UniformLoginErrors = true }
}

func testConfig(opts ...serverOption) *config.Config {
	cfg := config.Default()
	cfg.App.Env = config.EnvTest
	cfg.App.GinMode = gin.TestMode
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}
	cfg.Auth.BcryptCost = 4
	cfg.Roles = config.RolesConfig{AdminEmail: adminEmail, StaffDomain: staffDomain}
	cfg.Realtime.PingInterval = time.Second
	cfg.Realtime.PongTimeout = time.Second
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// NewTestServer builds the container exactly as the binary does and serves its router
func NewTestServer(t *testing.T, opts ...serverOption) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(opts...)
	require.NoError(t, cfg.Validate())

	c, err := app.NewContainer(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router)
	t.Cleanup(func() {
		c.Hub.Close()
		srv.Close()
		_ = c.Close()
	})
	return &TestServer{t: t, Container: c, Server: srv}
}

// Do sends a JSON request and decodes the envelope
func (s *TestServer) Do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// Register starts a registration and returns the development OTP, if any
func (s *TestServer) Register(email, name string) string {
	s.t.Helper()
	status, env := s.Do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": name, "password": password,
	})
	require.Equal(s.t, http.StatusOK, status, env.Message)
	code, _ := env.Data["developmentOTP"].(string)
	return code
}

// Verify submits an OTP and returns the status and envelope
func (s *TestServer) Verify(email, code string) (int, envelope) {
	s.t.Helper()
	return s.Do(http.MethodPost, "/auth/verify-otp", "", map[string]string{"email": email, "otp": code})
}

// Signup registers, verifies and logs in, returning the bearer token and identity
func (s *TestServer) Signup(email, name string) (string, map[string]any) {
	s.t.Helper()
	code := s.Register(email, name)
	require.Len(s.t, code, 6)

	status, env := s.Verify(email, code)
	require.Equal(s.t, http.StatusOK, status, env.Message)

	return s.Login(email)
}

// Login returns a token and identity for an existing account
func (s *TestServer) Login(email string) (string, map[string]any) {
	s.t.Helper()
	status, env := s.Do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, status, env.Message)
	return env.Data["token"].(string), env.Data["identity"].(map[string]any)
}

// Dial opens a websocket with the query token and waits until the hub has registered it
func (s *TestServer) Dial(token string) *websocket.Conn {
	s.t.Helper()
	before := s.Container.Hub.Stats().Connections

	conn, resp, err := s.DialRaw(token)
	require.NoError(s.t, err)
	require.Equal(s.t, http.StatusSwitchingProtocols, resp.StatusCode)
	s.t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(s.t, func() bool {
		return s.Container.Hub.Stats().Connections > before
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

// DialRaw attempts a websocket handshake
func (s *TestServer) DialRaw(token string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}
