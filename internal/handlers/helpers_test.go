package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-task-api/internal/config"
	"github.com/yukikurage/project-task-api/internal/database"
	"github.com/yukikurage/project-task-api/internal/metrics"
	"github.com/yukikurage/project-task-api/internal/repository"
	"github.com/yukikurage/project-task-api/internal/services"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	db      *gorm.DB
	store   *repository.GormStore
	metrics *metrics.Metrics
	router  *gin.Engine
}

func setupTestServer(t *testing.T, revocations services.RevocationList) testServer {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	store := repository.NewGormStore(db)
	m := metrics.New()
	router := NewRouter(RouterDeps{
		Config: &config.Config{
			CookieSecure:   false,
			RequestTimeout: 5 * time.Second,
		},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      m,
		Store:        store,
		Tokens:       services.NewTokenService("handler-test-secret", 24*time.Hour),
		Revocations:  revocations,
		SessionStore: cookie.NewStore([]byte("session-secret")),
	})

	return testServer{db: db, store: store, metrics: m, router: router}
}

// do sends a JSON request, authenticating with token when it is not empty
func (s testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in a user, returning the user id and token
func (s testServer) signUp(t *testing.T, name, email string) (string, string) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name": name, "email": email, "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered struct {
		UserID string `json:"userId"`
	}
	decode(t, w, &registered)

	w = s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": email, "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	return registered.UserID, login.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details struct {
		Field string `json:"field"`
	} `json:"details"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	decode(t, w, &body)
	return body
}
