package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/constants"
)

// PaginationParams is the page window of a list request
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the pagination block of list responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// GetPaginationParams reads ?page and ?limit. Values that are missing,
// unparsable or out of range fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}

	limit := queryInt(c, "limit", constants.DefaultPageSize)
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	// keep the offset within int32 so no backend sees a wrapped skip
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Response builds the pagination block for total matching records
func (p PaginationParams) Response(total int64) PaginationResponse {
	var pages int64
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return PaginationResponse{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
