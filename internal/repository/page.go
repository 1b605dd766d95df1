package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bookery/bookery/internal/model"
)

// Common errors for page repository operations.
var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageNumberExists = errors.New("page number already exists for this book")
)

// PageUpdate carries the fields of a partial page update.
// Nil fields are left unchanged.
type PageUpdate struct {
	PageNumber *int
	Content    *string
}

// CreatePage inserts a new page and fills in its generated ID and timestamps.
// The caller must have resolved the parent book first.
func (r *Repository) CreatePage(ctx context.Context, page *model.Page) error {
	query := `
		INSERT INTO pages (book_id, page_number, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		page.BookID,
		page.PageNumber,
		page.Content,
	).Scan(&page.ID, &page.CreatedAt, &page.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrPageNumberExists
		}
		return fmt.Errorf("failed to create page: %w", err)
	}

	return nil
}

// GetPage retrieves a page by its parent book and page number.
func (r *Repository) GetPage(ctx context.Context, bookID int64, pageNumber int) (*model.Page, error) {
	query := `
		SELECT id, book_id, page_number, content, created_at, updated_at
		FROM pages
		WHERE book_id = $1 AND page_number = $2
	`

	var page model.Page
	err := r.pool.QueryRow(ctx, query, bookID, pageNumber).Scan(
		&page.ID,
		&page.BookID,
		&page.PageNumber,
		&page.Content,
		&page.CreatedAt,
		&page.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return &page, nil
}

// ListPages retrieves all pages of a book ordered by page number.
func (r *Repository) ListPages(ctx context.Context, bookID int64) ([]*model.Page, error) {
	query := `
		SELECT id, book_id, page_number, content, created_at, updated_at
		FROM pages
		WHERE book_id = $1
		ORDER BY page_number
	`

	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*model.Page, 0)
	for rows.Next() {
		var page model.Page
		if err := rows.Scan(
			&page.ID,
			&page.BookID,
			&page.PageNumber,
			&page.Content,
			&page.CreatedAt,
			&page.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, &page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	return pages, nil
}

// UpdatePage applies a partial update and returns the updated page.
func (r *Repository) UpdatePage(ctx context.Context, bookID int64, pageNumber int, update PageUpdate) (*model.Page, error) {
	query := `
		UPDATE pages
		SET page_number = COALESCE($3, page_number),
		    content     = COALESCE($4, content),
		    updated_at  = now()
		WHERE book_id = $1 AND page_number = $2
		RETURNING id, book_id, page_number, content, created_at, updated_at
	`

	var page model.Page
	err := r.pool.QueryRow(ctx, query, bookID, pageNumber,
		update.PageNumber,
		update.Content,
	).Scan(
		&page.ID,
		&page.BookID,
		&page.PageNumber,
		&page.Content,
		&page.CreatedAt,
		&page.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrPageNumberExists
		}
		return nil, fmt.Errorf("failed to update page: %w", err)
	}

	return &page, nil
}

// DeletePage removes a page by its parent book and page number.
func (r *Repository) DeletePage(ctx context.Context, bookID int64, pageNumber int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM pages WHERE book_id = $1 AND page_number = $2`,
		bookID, pageNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}
