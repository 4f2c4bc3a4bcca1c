package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/pharmacy-rx-api/config"
	"github.com/kendall-kelly/pharmacy-rx-api/middleware"
	"github.com/kendall-kelly/pharmacy-rx-api/models"
	"github.com/kendall-kelly/pharmacy-rx-api/routes"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestSecret is the gateway key secret used by test configs
const TestSecret = "test_secret"

// RequireTestEnvironment ensures that tests are running in the test environment.
// It fails the test immediately if GO_ENV is not "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip skips instead of failing when GO_ENV is not "test"
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// TestConfig returns defaults with a gateway secret and Auth0 settings filled in
func TestConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Auth0Domain = "test.auth0.com"
	cfg.Auth0Audience = "https://api.test.com"
	cfg.RazorpayKeyID = "rzp_test_mock"
	cfg.RazorpayKeySecret = TestSecret
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	return cfg
}

// SetupTestDB opens a migrated in-memory sqlite database and installs it as
// the global connection. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db, "sqlite3"), "Failed to migrate test database")
	config.SetDB(db)
	return db
}

// NewAPIRouter builds the full /api/v1 surface with HeaderAuth in place of JWT validation
func NewAPIRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	routes.Register(router.Group("/api/v1"), HeaderAuth())
	return router
}

// CreateUser inserts a user whose Auth0 subject is "auth0|"+name
func CreateUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	user := models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   name + "@example.com",
		Role:    role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// Client sends requests to an http.Handler as one test user
type Client struct {
	Handler http.Handler
	User    string
	Role    string
	Scopes  []string
}

// As returns a client acting as user
func As(handler http.Handler, user models.User, scopes ...string) *Client {
	return &Client{Handler: handler, User: user.Auth0ID, Role: user.Role, Scopes: scopes}
}

// Do sends a request with an optional JSON body
func (c *Client) Do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Send(req)
}

// Send adds the identity headers to req and serves it
func (c *Client) Send(req *http.Request) *httptest.ResponseRecorder {
	if c.User != "" {
		req.Header.Set(HeaderUser, c.User)
		req.Header.Set(HeaderRole, c.Role)
		req.Header.Set(HeaderScope, strings.Join(c.Scopes, " "))
	}
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// Envelope is the response shape every endpoint uses
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Decode parses the envelope and, when out is non-nil, its data field
func Decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Response body: %s", w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out), "Response body: %s", w.Body.String())
	}
	return env
}

// ErrorCode returns the error code of a failed response, or ""
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := Decode(t, w, nil)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}
