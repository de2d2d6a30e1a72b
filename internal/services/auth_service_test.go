package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-task-api/internal/models"
)

func TestAuthService_RegisterAndVerify(t *testing.T) {
	_, store := setupStore(t)
	svc := NewAuthService(store.Users())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "  Ana ",
		Email:    " Ana@Example.COM ",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	identity, err := svc.Verify(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: user.ID, Name: "Ana"}, identity)
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	db, store := setupStore(t)
	svc := NewAuthService(store.Users())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ANA@example.com", Password: "secret2"})
	require.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	_, store := setupStore(t)
	svc := NewAuthService(store.Users())

	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"blank name", RegisterInput{Name: "   ", Email: "a@b.co", Password: "secret1"}, "name"},
		{"no at sign", RegisterInput{Name: "Ana", Email: "ana.example.com", Password: "secret1"}, "email"},
		{"no tld", RegisterInput{Name: "Ana", Email: "ana@example", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Name: "Ana", Email: "a@b.co", Password: "12345"}, "password"},
		{"short multibyte password", RegisterInput{Name: "Ana", Email: "a@b.co", Password: "ñññ"}, "password"},
		{"password over 72 bytes", RegisterInput{Name: "Ana", Email: "a@b.co", Password: strings.Repeat("a", 73)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrValidation)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestAuthService_VerifyFailures(t *testing.T) {
	_, store := setupStore(t)
	svc := NewAuthService(store.Users())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Verify(ctx, "ana@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
