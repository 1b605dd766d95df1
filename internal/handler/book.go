package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookery/bookery/internal/auth"
	"github.com/bookery/bookery/internal/handler/dto"
	"github.com/bookery/bookery/internal/metrics"
	"github.com/bookery/bookery/internal/model"
	"github.com/bookery/bookery/internal/repository"
)

// BookStore is the slice of the repository the book handler needs.
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context) ([]*model.Book, error)
	UpdateBook(ctx context.Context, id int64, update repository.BookUpdate) (*model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookHandler handles CRUD operations on books. Reads are open to any
// authenticated user; mutations pass the ownership check first.
type BookHandler struct {
	store   BookStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(store BookStore, logger *slog.Logger, recorder metrics.Recorder) *BookHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BookHandler{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// List handles GET /book/.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.ListBooks(r.Context())
	if err != nil {
		h.logger.Error("book listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve books", err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Books retrieved successfully", dto.ToBookListResponse(books))
}

// Get handles GET /book/{id}/.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.store.GetBookByID(r.Context(), id)
	if err != nil {
		h.respondBookError(w, err, "Failed to retrieve books")
		return
	}

	respondSuccess(w, http.StatusOK, "Books retrieved successfully", dto.ToBookResponse(book))
}

// Create handles POST /book/.
// The author is always the authenticated user; any author field in the
// payload is ignored.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	var req dto.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid book data", map[string]string{"body": "invalid JSON"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, "Invalid book data", errs)
		return
	}

	book := &model.Book{
		AuthorID:    authCtx.User.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}

	if err := h.store.CreateBook(r.Context(), book); err != nil {
		h.logger.Error("book creation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create book", err.Error())
		return
	}

	h.logger.Info("book_created", "book_id", book.ID, "author_id", book.AuthorID)
	h.metrics.IncBookMutation("created")
	respondSuccess(w, http.StatusCreated, "Book created successfully", dto.ToBookResponse(book))
}

// Update handles PATCH /book/{id}/.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.store.GetBookByID(r.Context(), id)
	if err != nil {
		h.respondBookError(w, err, "Failed to update book")
		return
	}

	// Ownership is checked after resolution and before any write.
	authCtx := auth.MustAuthFromContext(r.Context())
	if err := auth.Authorize(authCtx, auth.OpMutate, book); err != nil {
		h.metrics.IncOwnershipDenied()
		respondError(w, http.StatusForbidden,
			"You do not have permission to update this book", err.Error())
		return
	}

	var req dto.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid book data", map[string]string{"body": "invalid JSON"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, "Invalid book data", errs)
		return
	}

	updated, err := h.store.UpdateBook(r.Context(), id, repository.BookUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.respondBookError(w, err, "Failed to update book")
		return
	}

	h.logger.Info("book_updated", "book_id", id)
	h.metrics.IncBookMutation("updated")
	respondSuccess(w, http.StatusOK, "Book updated successfully", dto.ToBookResponse(updated))
}

// Delete handles DELETE /book/{id}/.
// The response carries the remaining books.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.store.GetBookByID(r.Context(), id)
	if err != nil {
		h.respondBookError(w, err, "Failed to delete book")
		return
	}

	authCtx := auth.MustAuthFromContext(r.Context())
	if err := auth.Authorize(authCtx, auth.OpMutate, book); err != nil {
		h.metrics.IncOwnershipDenied()
		respondError(w, http.StatusForbidden,
			"You do not have permission to delete this book", err.Error())
		return
	}

	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		h.respondBookError(w, err, "Failed to delete book")
		return
	}

	remaining, err := h.store.ListBooks(r.Context())
	if err != nil {
		h.logger.Error("book listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve books", err.Error())
		return
	}

	h.logger.Info("book_deleted", "book_id", id)
	h.metrics.IncBookMutation("deleted")
	respondSuccess(w, http.StatusOK, "Book deleted successfully", dto.ToBookListResponse(remaining))
}

// respondBookError maps repository errors to responses.
func (h *BookHandler) respondBookError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, repository.ErrBookNotFound) {
		respondError(w, http.StatusNotFound, "Book not found", err.Error())
		return
	}
	h.logger.Error("book operation failed", "error", err)
	respondError(w, http.StatusInternalServerError, fallback, err.Error())
}

// pathID parses an integer URL parameter, answering 404 for anything that
// is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "Resource not found", "invalid identifier")
		return 0, false
	}
	return id, true
}
