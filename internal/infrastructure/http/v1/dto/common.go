// Package dto provides Data Transfer Objects for API requests.
// Domain models carry their own json tags and serve as responses
// directly; DTOs exist for request bodies and list envelopes.
package dto

import (
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// ListRequest contains common list query parameters.
type ListRequest struct {
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the request into a domain list filter.
func (r *ListRequest) ToFilter() domain.ListFilter {
	f := domain.ListFilter{
		Search:  r.Search,
		OrderBy: r.OrderBy,
		Limit:   r.Limit,
		Offset:  r.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse builds the envelope from a domain list result.
func NewListResponse[T any](r domain.ListResult[T]) ListResponse {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// CancelRequest carries a cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}
