package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Listing page defaults
const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 200
)

// Pagination describes the page returned by a listing endpoint
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ParsePagination parses standard pagination query params from the request.
// It enforces bounds and applies defaults when values are missing or invalid.
func ParsePagination(c *gin.Context, defaultPage, defaultSize, maxSize int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}

	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	return page, size
}

// paginate cuts one page out of an already ordered listing. Pages past the end are empty.
func paginate[T any](items []T, page, size int) ([]T, Pagination) {
	total := len(items)
	p := Pagination{Page: page, PageSize: size, Total: total, TotalPages: (total + size - 1) / size}

	start := (page - 1) * size
	if start >= total {
		return []T{}, p
	}
	end := min(start+size, total)
	return items[start:end], p
}

// writePage parses the page params, slices items and writes them under itemsKey
// next to a pagination block
func writePage[T any](c *gin.Context, itemsKey string, items []T) {
	page, size := ParsePagination(c, defaultPage, defaultPageSize, maxPageSize)
	pageItems, pagination := paginate(items, page, size)
	c.JSON(http.StatusOK, gin.H{
		itemsKey:     pageItems,
		"pagination": pagination,
	})
}
