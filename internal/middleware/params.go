package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
)

// RequireIDParams rejects requests whose named path parameters are not UUIDs
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidID, "Invalid "+name)
				return
			}
		}
		c.Next()
	}
}
