package model

import "time"

// Page belongs to a book and is ordered by PageNumber within it.
// Pages carry no owner column of their own; authorization resolves
// through the parent book's author.
type Page struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
