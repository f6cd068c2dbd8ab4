// internal/catalog/handler.go
package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"biblioteca/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := BookFilter{
		Title:    r.URL.Query().Get("title"),
		Author:   r.URL.Query().Get("author"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			api.BadRequest(w, "enabled must be true or false")
			return
		}
		filter.Enabled = &enabled
	}
	filter.Page, filter.PageSize = api.PageParams(r)

	books, total, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Page(w, http.StatusOK, books, total, filter.Page, filter.PageSize)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid book id")
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input BookInput
	if err := api.Decode(r, &input); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid book id")
		return
	}

	var input BookInput
	if err := api.Decode(r, &input); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, input)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid book id")
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, true)
}
