package pagination

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultSize = 10
	MinSize     = 10
	MaxSize     = 100
)

// Pagination is a zero-based page request.
type Pagination struct {
	Page   int
	Size   int
	Offset int
	Total  int64
}

// ParseFromRequest reads page and size from the query string. Page defaults
// to 0 and size to DefaultSize; a size outside [MinSize, MaxSize] is rejected.
func ParseFromRequest(c *fiber.Ctx) (Pagination, error) {
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil || page < 0 {
		return Pagination{}, fmt.Errorf("page must be a non-negative integer")
	}
	size, err := strconv.Atoi(c.Query("size", strconv.Itoa(DefaultSize)))
	if err != nil {
		return Pagination{}, fmt.Errorf("size must be an integer")
	}
	if size < MinSize || size > MaxSize {
		return Pagination{}, fmt.Errorf("size must be between %d and %d", MinSize, MaxSize)
	}

	return Pagination{
		Page:   page,
		Size:   size,
		Offset: page * size,
	}, nil
}

// Response creates a standardized pagination response
func Response(p Pagination, data interface{}) fiber.Map {
	totalPages := p.Total / int64(p.Size)
	if p.Total%int64(p.Size) > 0 {
		totalPages++
	}

	return fiber.Map{
		"data": data,
		"meta": fiber.Map{
			"current_page": p.Page,
			"per_page":     p.Size,
			"total_items":  p.Total,
			"total_pages":  totalPages,
		},
	}
}
