package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-task-api/internal/constants"
	"github.com/yukikurage/project-task-api/internal/dto"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/services"
)

func TestAuthHandler_Register(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})

	w := s.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name": "Ana", "email": "  Ana@Example.com ", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		UserID  string      `json:"userId"`
		User    dto.UserDTO `json:"user"`
	}
	decode(t, w, &response)
	assert.True(t, response.Success)
	assert.NotEmpty(t, response.UserID)
	assert.Equal(t, response.UserID, response.User.ID)
	assert.Equal(t, "ana@example.com", response.User.Email)

	var user models.User
	require.NoError(t, s.db.First(&user, "id = ?", response.UserID).Error)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NotContains(t, w.Body.String(), user.PasswordHash)
}

func TestAuthHandler_RegisterRejections(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})
	s.signUp(t, "Ana", "ana@example.com")

	tests := []struct {
		name  string
		body  gin.H
		code  string
		field string
	}{
		{name: "missing fields", body: gin.H{"email": "x@example.com"}, code: apierrors.ErrCodeInvalidInput},
		{name: "blank name", body: gin.H{"name": "   ", "email": "x@example.com", "password": "secret1"}, code: apierrors.ErrCodeInvalidInput, field: "name"},
		{name: "bad email", body: gin.H{"name": "X", "email": "not-an-email", "password": "secret1"}, code: apierrors.ErrCodeInvalidInput, field: "email"},
		{name: "short password", body: gin.H{"name": "X", "email": "x@example.com", "password": "12345"}, code: apierrors.ErrCodeInvalidInput, field: "password"},
		{name: "duplicate email", body: gin.H{"name": "Other", "email": "ANA@example.com", "password": "secret1"}, code: apierrors.ErrCodeAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Details.Field)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthHandler_Login(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})
	userID, _ := s.signUp(t, "Ana", "ana@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ana@example.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success   bool              `json:"success"`
		Token     string            `json:"token"`
		ExpiresAt time.Time         `json:"expiresAt"`
		User      services.Identity `json:"user"`
	}
	decode(t, w, &response)
	assert.True(t, response.Success)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, services.Identity{UserID: userID, Name: "Ana"}, response.User)
	assert.WithinDuration(t, time.Now().Add(constants.TokenTTL), response.ExpiresAt, time.Minute)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, int(constants.TokenTTL.Seconds()), cookies[0].MaxAge)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})
	s.signUp(t, "Ana", "ana@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "nobody@example.com", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ana@example.com", "password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidCredentials, decodeError(t, w).Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandler_ProfileWithSessionCookie(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})
	userID, _ := s.signUp(t, "Ana", "ana@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ana@example.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"userId":"`+userID+`","name":"Ana"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestAuthHandler_ProfileRequiresToken(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})

	w := s.do(t, http.MethodGet, "/api/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/auth/profile", nil, "forged.token.value")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_DeleteAccountRevokesToken(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { client.Close() })
	s := setupTestServer(t, services.NewRedisRevocationList(client, constants.TokenTTL))

	_, token := s.signUp(t, "Ana", "ana@example.com")

	w := s.do(t, http.MethodDelete, "/api/auth/delete", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool                   `json:"success"`
		Deleted services.CascadeReport `json:"deleted"`
	}
	decode(t, w, &response)
	assert.True(t, response.Success)
	assert.Equal(t, services.CascadeReport{Users: 1}, response.Deleted)

	w = s.do(t, http.MethodGet, "/api/auth/profile", nil, token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeTokenRevoked, decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "ana@example.com", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandler_DeleteAccountWithoutRevocationList(t *testing.T) {
	s := setupTestServer(t, services.NoopRevocationList{})
	_, token := s.signUp(t, "Ana", "ana@example.com")

	w := s.do(t, http.MethodDelete, "/api/auth/delete", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	// the token itself stays valid but the account is gone
	w = s.do(t, http.MethodDelete, "/api/auth/delete", nil, token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeError(t, w).Code)
}
