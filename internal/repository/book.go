package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bookery/bookery/internal/model"
)

// ErrBookNotFound indicates no book exists with the requested ID.
var ErrBookNotFound = errors.New("book not found")

// BookUpdate carries the fields of a partial book update.
// Nil fields are left unchanged.
type BookUpdate struct {
	Title       *string
	Description *string
	Price       *float64
}

// CreateBook inserts a new book and fills in its generated ID and timestamps.
// The author is fixed at creation and never changes afterwards.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (author_id, title, description, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.AuthorID,
		book.Title,
		book.Description,
		book.Price,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id int64) (*model.Book, error) {
	query := `
		SELECT id, author_id, title, description, price, created_at, updated_at
		FROM books
		WHERE id = $1
	`

	var book model.Book
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&book.ID,
		&book.AuthorID,
		&book.Title,
		&book.Description,
		&book.Price,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return &book, nil
}

// ListBooks retrieves all books, oldest first.
func (r *Repository) ListBooks(ctx context.Context) ([]*model.Book, error) {
	query := `
		SELECT id, author_id, title, description, price, created_at, updated_at
		FROM books
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]*model.Book, 0)
	for rows.Next() {
		var book model.Book
		if err := rows.Scan(
			&book.ID,
			&book.AuthorID,
			&book.Title,
			&book.Description,
			&book.Price,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, &book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, nil
}

// UpdateBook applies a partial update and returns the updated book.
func (r *Repository) UpdateBook(ctx context.Context, id int64, update BookUpdate) (*model.Book, error) {
	query := `
		UPDATE books
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    price       = COALESCE($4, price),
		    updated_at  = now()
		WHERE id = $1
		RETURNING id, author_id, title, description, price, created_at, updated_at
	`

	var book model.Book
	err := r.pool.QueryRow(ctx, query, id,
		update.Title,
		update.Description,
		update.Price,
	).Scan(
		&book.ID,
		&book.AuthorID,
		&book.Title,
		&book.Description,
		&book.Price,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return &book, nil
}

// DeleteBook removes a book and, via cascade, its pages.
func (r *Repository) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}
