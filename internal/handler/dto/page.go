package dto

import (
	"time"

	"github.com/bookery/bookery/internal/model"
)

// CreatePageRequest is the body of POST /book/{id}/page/.
type CreatePageRequest struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// Validate returns per-field errors, or an empty map when valid.
func (r *CreatePageRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.PageNumber <= 0 {
		errs["page_number"] = "page_number must be a positive integer"
	}
	if r.Content == "" {
		errs["content"] = "content is required"
	}

	return errs
}

// UpdatePageRequest is the body of PATCH /book/{id}/page/{number}/.
// Nil fields are left unchanged.
type UpdatePageRequest struct {
	PageNumber *int    `json:"page_number,omitempty"`
	Content    *string `json:"content,omitempty"`
}

// Validate returns per-field errors, or an empty map when valid.
func (r *UpdatePageRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.PageNumber != nil && *r.PageNumber <= 0 {
		errs["page_number"] = "page_number must be a positive integer"
	}
	if r.Content != nil && *r.Content == "" {
		errs["content"] = "content must not be empty"
	}

	return errs
}

// PageResponse represents a page in API responses.
type PageResponse struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToPageResponse converts a Page model to a PageResponse DTO.
func ToPageResponse(page *model.Page) *PageResponse {
	return &PageResponse{
		ID:         page.ID,
		BookID:     page.BookID,
		PageNumber: page.PageNumber,
		Content:    page.Content,
		CreatedAt:  page.CreatedAt,
		UpdatedAt:  page.UpdatedAt,
	}
}

// ToPageListResponse converts a slice of pages.
func ToPageListResponse(pages []*model.Page) []*PageResponse {
	out := make([]*PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, ToPageResponse(p))
	}
	return out
}
