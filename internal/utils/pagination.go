// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/certportal-backend/internal/apperrors"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams is optional: a zero Limit means the caller asked for
// every row.
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
	Data       interface{} `json:"data"`
}

func (p PaginationParams) Enabled() bool {
	return p.Limit > 0
}

func (p PaginationParams) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// GetPaginationParams reads page and limit from the query string. Paging is
// only enabled when at least one of them is present.
func GetPaginationParams(c *gin.Context) (PaginationParams, error) {
	pageStr, hasPage := c.GetQuery("page")
	limitStr, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return PaginationParams{}, nil
	}

	params := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	var fields []apperrors.FieldError

	if hasPage {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			fields = append(fields, apperrors.Field("page", "min", "page must be a positive integer"))
		} else {
			params.Page = page
		}
	}
	if hasLimit {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			fields = append(fields, apperrors.Field("limit", "max", "limit must be between 1 and "+strconv.Itoa(MaxPageLimit)))
		} else {
			params.Limit = limit
		}
	}

	if len(fields) > 0 {
		return PaginationParams{}, apperrors.Validation(fields...)
	}
	return params, nil
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
