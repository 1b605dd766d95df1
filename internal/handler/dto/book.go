package dto

import (
	"time"

	"github.com/bookery/bookery/internal/model"
)

const maxTitleLength = 100

// CreateBookRequest is the body of POST /book/. The author is taken from
// the authenticated identity, never from the payload.
type CreateBookRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Validate returns per-field errors, or an empty map when valid.
func (r *CreateBookRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Title == "" {
		errs["title"] = "title is required"
	} else if len(r.Title) > maxTitleLength {
		errs["title"] = "title must be at most 100 characters"
	}

	if r.Price < 0 {
		errs["price"] = "price must not be negative"
	}

	return errs
}

// UpdateBookRequest is the body of PATCH /book/{id}/.
// Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Validate returns per-field errors, or an empty map when valid.
func (r *UpdateBookRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Title != nil {
		if *r.Title == "" {
			errs["title"] = "title must not be empty"
		} else if len(*r.Title) > maxTitleLength {
			errs["title"] = "title must be at most 100 characters"
		}
	}

	if r.Price != nil && *r.Price < 0 {
		errs["price"] = "price must not be negative"
	}

	return errs
}

// BookResponse represents a book in API responses.
type BookResponse struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToBookResponse converts a Book model to a BookResponse DTO.
func ToBookResponse(book *model.Book) *BookResponse {
	return &BookResponse{
		ID:          book.ID,
		AuthorID:    book.AuthorID,
		Title:       book.Title,
		Description: book.Description,
		Price:       book.Price,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

// ToBookListResponse converts a slice of books.
func ToBookListResponse(books []*model.Book) []*BookResponse {
	out := make([]*BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, ToBookResponse(b))
	}
	return out
}
