package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/dto"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/middleware"
	"github.com/yukikurage/project-task-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	tokens       *services.TokenService
	cascade      *services.CascadeService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, tokens *services.TokenService, cascade *services.CascadeService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokens:       tokens,
		cascade:      cascade,
		cookieSecure: cookieSecure,
	}
}

// Register creates a new user.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Name, email and password are required")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"userId":  user.ID,
		"user":    dto.ToUserDTO(*user),
	})
}

// Login verifies credentials, sets the session cookie and returns the token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	identity, err := h.authService.Verify(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(identity)
	if err != nil {
		respondInternal(c, err)
		return
	}

	if err := middleware.SetSessionToken(c, token, h.tokens.TTL(), h.cookieSecure); err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Login successful",
		"token":     token,
		"expiresAt": expiresAt,
		"user":      identity,
	})
}

// Logout clears the session cookie. Issued tokens stay valid until expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.ClearSessionToken(c, h.cookieSecure); err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Profile returns the identity carried by the request token.
func (h *AuthHandler) Profile(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"userId":  identity.UserID,
		"name":    identity.Name,
	})
}

// DeleteAccount removes the caller with everything they own or are assigned.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "", "")
		return
	}

	report, err := h.cascade.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		// the token outlived its account
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.Unauthorized(c, apierrors.ErrCodeUnauthorized, "Account no longer exists")
			return
		}
		respondAuthError(c, err)
		return
	}

	if err := middleware.ClearSessionToken(c, h.cookieSecure); err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account deleted successfully",
		"deleted": report,
	})
}

func respondAuthError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, "User with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidCredentials, "Invalid password")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		respondInternal(c, err)
	}
}
