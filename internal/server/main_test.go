package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"formstack/internal/config"
	"formstack/internal/models"
	"formstack/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWTSecret:             "test-secret-that-is-at-least-32-chars",
		JWTAccessTTLMinutes:   15,
		JWTRefreshTTLHours:    24,
		Port:                  "0",
		DBDriver:              "sqlite",
		Env:                   "test",
		AllowedOrigins:        "http://localhost:3000",
		AvatarUploadDir:       t.TempDir(),
		AvatarMaxUploadSizeMB: 2,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRedis(t, nil)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	s, err := NewServerWithDeps(testConfig(t), db, rdb)
	require.NoError(t, err)
	return &testEnv{server: s, app: s.NewApp(), db: db}
}

// accessToken issues a valid access token for user.
func (e *testEnv) accessToken(t *testing.T, user *models.User) string {
	t.Helper()
	pair, err := e.server.issueTokenPair(user)
	require.NoError(t, err)
	return pair.Access
}

// do sends body (JSON-encoded unless it is already []byte) and returns the
// response with its raw body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeJSON[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
