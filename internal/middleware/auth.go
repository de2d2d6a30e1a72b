package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/constants"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/services"
)

// TokenVerifier turns a raw token into the identity it was issued for
type TokenVerifier interface {
	Verify(token string) (services.Identity, error)
}

// RequireAuth verifies the token of each extractor in turn and stores the
// first valid identity in the context. When no token verifies, the failure
// of the first one found is reported.
func RequireAuth(verifier TokenVerifier, revocations services.RevocationList, extractors ...TokenExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := authenticate(c, verifier, extractors)
		if err != nil {
			respondAuthFailure(c, err)
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), identity.UserID)
		if err != nil {
			// fail open: the token itself is valid
			slog.Warn("revocation check failed", "user_id", identity.UserID, "error", err)
		} else if revoked {
			respondAuthFailure(c, services.NewAuthError(services.AuthRevoked, nil))
			return
		}

		c.Set(constants.ContextKeyUserID, identity.UserID)
		c.Set(constants.ContextKeyIdentity, identity)
		c.Next()
	}
}

func authenticate(c *gin.Context, verifier TokenVerifier, extractors []TokenExtractor) (services.Identity, error) {
	var firstErr error
	for _, extractor := range extractors {
		token := extractor.Extract(c)
		if token == "" {
			continue
		}
		identity, err := verifier.Verify(token)
		if err == nil {
			return identity, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return services.Identity{}, firstErr
	}
	return verifier.Verify("")
}

func respondAuthFailure(c *gin.Context, err error) {
	var authErr *services.AuthError
	if !errors.As(err, &authErr) {
		apierrors.Unauthorized(c, "", "")
		return
	}

	switch authErr.Kind {
	case services.AuthMissing:
		apierrors.Unauthorized(c, apierrors.ErrCodeUnauthorized, "Authentication required")
	case services.AuthExpired:
		apierrors.Unauthorized(c, apierrors.ErrCodeTokenExpired, "Token has expired")
	case services.AuthRevoked:
		apierrors.Unauthorized(c, apierrors.ErrCodeTokenRevoked, "Token is no longer valid")
	default:
		apierrors.Unauthorized(c, apierrors.ErrCodeUnauthorized, "Invalid token")
	}
}

// GetIdentity retrieves the authenticated identity from context
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := value.(services.Identity)
	return identity, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}
