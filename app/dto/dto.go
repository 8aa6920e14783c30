package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// PaginationRequest carries the common list paging parameters
type PaginationRequest struct {
	Page     int `json:"page" query:"page" validate:"omitempty,min=1" example:"1"`
	PageSize int `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100" example:"20"`
}

// Limit returns the page size with the default applied
func (p *PaginationRequest) Limit() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// Offset returns the row offset for the requested page
func (p *PaginationRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
