package model

import "time"

// Book is an ownable resource. AuthorID references the creating user and
// is immutable after creation; there is no transfer-of-ownership operation.
type Book struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID returns the ID of the user allowed to mutate this book.
func (b *Book) OwnerID() int64 {
	return b.AuthorID
}
