package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller carried by a session token.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// AuthErrorKind classifies a rejected credential.
type AuthErrorKind string

const (
	AuthMissing   AuthErrorKind = "missing"
	AuthMalformed AuthErrorKind = "malformed"
	AuthExpired   AuthErrorKind = "expired"
	AuthRevoked   AuthErrorKind = "revoked"
)

// AuthError is returned when a request carries no usable token.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	return "auth " + string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an AuthError of the given kind.
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

type sessionClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for identity that expires after the configured TTL.
func (s *TokenService) Issue(identity Identity) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := sessionClaims{
		UserID: identity.UserID,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of a token and returns its identity.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, NewAuthError(AuthMissing, nil)
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, NewAuthError(AuthExpired, err)
		}
		return Identity{}, NewAuthError(AuthMalformed, err)
	}

	if claims.UserID == "" || claims.Name == "" {
		return Identity{}, NewAuthError(AuthMalformed, errors.New("token is missing identity claims"))
	}
	return Identity{UserID: claims.UserID, Name: claims.Name}, nil
}
