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

// PageStore is the slice of the repository the page handler needs.
// Pages have no owner of their own, so the parent book is always resolved
// to authorize mutations.
type PageStore interface {
	GetBookByID(ctx context.Context, id int64) (*model.Book, error)
	CreatePage(ctx context.Context, page *model.Page) error
	GetPage(ctx context.Context, bookID int64, pageNumber int) (*model.Page, error)
	ListPages(ctx context.Context, bookID int64) ([]*model.Page, error)
	UpdatePage(ctx context.Context, bookID int64, pageNumber int, update repository.PageUpdate) (*model.Page, error)
	DeletePage(ctx context.Context, bookID int64, pageNumber int) error
}

// PageHandler handles CRUD operations on a book's pages.
type PageHandler struct {
	store   PageStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(store PageStore, logger *slog.Logger, recorder metrics.Recorder) *PageHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PageHandler{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// List handles GET /book/{id}/page/.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	pages, err := h.store.ListPages(r.Context(), bookID)
	if err != nil {
		h.logger.Error("page listing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve pages", err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Pages retrieved successfully", dto.ToPageListResponse(pages))
}

// Get handles GET /book/{id}/page/{number}/.
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := pageNumber(w, r)
	if !ok {
		return
	}

	page, err := h.store.GetPage(r.Context(), bookID, number)
	if err != nil {
		h.respondPageError(w, err, "Failed to retrieve pages")
		return
	}

	respondSuccess(w, http.StatusOK, "Pages retrieved successfully", dto.ToPageResponse(page))
}

// Create handles POST /book/{id}/page/.
// Adding a page mutates the parent book's content, so it passes the
// ownership check against the book's author.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	book, err := h.store.GetBookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			respondError(w, http.StatusNotFound, "Book not found", err.Error())
			return
		}
		h.logger.Error("book lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create page", err.Error())
		return
	}

	authCtx := auth.MustAuthFromContext(r.Context())
	if err := auth.Authorize(authCtx, auth.OpMutate, book); err != nil {
		h.metrics.IncOwnershipDenied()
		respondError(w, http.StatusForbidden,
			"You do not have permission to add pages to this book", err.Error())
		return
	}

	var req dto.CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid page data", map[string]string{"body": "invalid JSON"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, "Invalid page data", errs)
		return
	}

	page := &model.Page{
		BookID:     bookID,
		PageNumber: req.PageNumber,
		Content:    req.Content,
	}

	if err := h.store.CreatePage(r.Context(), page); err != nil {
		if errors.Is(err, repository.ErrPageNumberExists) {
			respondValidation(w, "Invalid page data", map[string]string{
				"page_number": "this book already has a page with that number",
			})
			return
		}
		h.logger.Error("page creation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create page", err.Error())
		return
	}

	h.logger.Info("page_created", "book_id", bookID, "page_number", page.PageNumber)
	h.metrics.IncPageMutation("created")
	respondSuccess(w, http.StatusCreated, "Page created successfully", dto.ToPageResponse(page))
}

// Update handles PATCH /book/{id}/page/{number}/.
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := pageNumber(w, r)
	if !ok {
		return
	}

	book, _, ok := h.resolvePage(w, r, bookID, number, "Failed to update page")
	if !ok {
		return
	}

	authCtx := auth.MustAuthFromContext(r.Context())
	if err := auth.Authorize(authCtx, auth.OpMutate, book); err != nil {
		h.metrics.IncOwnershipDenied()
		respondError(w, http.StatusForbidden,
			"You do not have permission to update this page", err.Error())
		return
	}

	var req dto.UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid page data", map[string]string{"body": "invalid JSON"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		respondValidation(w, "Invalid page data", errs)
		return
	}

	updated, err := h.store.UpdatePage(r.Context(), bookID, number, repository.PageUpdate{
		PageNumber: req.PageNumber,
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, repository.ErrPageNumberExists) {
			respondValidation(w, "Invalid page data", map[string]string{
				"page_number": "this book already has a page with that number",
			})
			return
		}
		h.respondPageError(w, err, "Failed to update page")
		return
	}

	h.logger.Info("page_updated", "book_id", bookID, "page_number", number)
	h.metrics.IncPageMutation("updated")
	respondSuccess(w, http.StatusOK, "Page updated successfully", dto.ToPageResponse(updated))
}

// Delete handles DELETE /book/{id}/page/{number}/.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number, ok := pageNumber(w, r)
	if !ok {
		return
	}

	book, _, ok := h.resolvePage(w, r, bookID, number, "Failed to delete page")
	if !ok {
		return
	}

	authCtx := auth.MustAuthFromContext(r.Context())
	if err := auth.Authorize(authCtx, auth.OpMutate, book); err != nil {
		h.metrics.IncOwnershipDenied()
		respondError(w, http.StatusForbidden,
			"You do not have permission to delete this page", err.Error())
		return
	}

	if err := h.store.DeletePage(r.Context(), bookID, number); err != nil {
		h.respondPageError(w, err, "Failed to delete page")
		return
	}

	h.logger.Info("page_deleted", "book_id", bookID, "page_number", number)
	h.metrics.IncPageMutation("deleted")
	respondSuccess(w, http.StatusOK, "Page deleted successfully", nil)
}

// resolvePage loads the parent book and the page, answering 404 for
// whichever is missing. Resolution happens before the ownership check so
// a missing resource reads as "not found", not "forbidden".
func (h *PageHandler) resolvePage(w http.ResponseWriter, r *http.Request, bookID int64, number int, fallback string) (*model.Book, *model.Page, bool) {
	book, err := h.store.GetBookByID(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			respondError(w, http.StatusNotFound, "Book not found", err.Error())
			return nil, nil, false
		}
		h.logger.Error("book lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, fallback, err.Error())
		return nil, nil, false
	}

	page, err := h.store.GetPage(r.Context(), bookID, number)
	if err != nil {
		h.respondPageError(w, err, fallback)
		return nil, nil, false
	}

	return book, page, true
}

// respondPageError maps repository errors to responses.
func (h *PageHandler) respondPageError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, repository.ErrPageNotFound) {
		respondError(w, http.StatusNotFound, "Page not found", err.Error())
		return
	}
	h.logger.Error("page operation failed", "error", err)
	respondError(w, http.StatusInternalServerError, fallback, err.Error())
}

// pageNumber parses the page number URL parameter.
func pageNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondError(w, http.StatusNotFound, "Page not found", "invalid page number")
		return 0, false
	}
	return n, true
}
