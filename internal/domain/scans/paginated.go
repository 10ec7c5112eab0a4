package scans

import "math"

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Scan `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int64   `json:"totalItems"`
	TotalPages int     `json:"totalPages"`
}

// NewPaginatedResult fills the page metadata from a normalized filter.
func NewPaginatedResult(data []*Scan, f Filter, total int64) PaginatedResult {
	if data == nil {
		data = []*Scan{}
	}
	return PaginatedResult{
		Data:       data,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(f.PageSize))),
	}
}
