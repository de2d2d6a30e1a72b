package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/services"
)

// respondValidation answers 400 when err is a *services.ValidationError
func respondValidation(c *gin.Context, err error) bool {
	var validationErr *services.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	apierrors.BadRequestWithDetails(c, validationErr.Message, gin.H{"field": validationErr.Field})
	return true
}

// respondInternal logs the cause and answers with a generic message
func respondInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, context.DeadlineExceeded) {
		apierrors.GatewayTimeout(c)
		return
	}
	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	apierrors.InternalError(c, "")
}
