// internal/api/respond.go
package api

import (
	"log/slog"
	"math"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"biblioteca/internal/faults"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pagination describes the page window of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

type envelope struct {
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: v}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Page writes a paginated list response.
func Page(w http.ResponseWriter, status int, data any, total, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := envelope{
		Data: data,
		Pagination: &Pagination{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error translates err into a client-facing response using the failure
// taxonomy. Unclassified errors are logged and surfaced as a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := faults.KindOf(err)
	status := faults.HTTPStatus(kind)

	msg := err.Error()
	if kind == faults.KindUnknown || kind == faults.KindIntegrityFailure {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	}
	if kind == faults.KindUnknown {
		msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(errorBody{Error: msg, Kind: kind.String()}); encErr != nil {
		slog.Error("failed to encode error response", "error", encErr)
	}
}

// BadRequest writes a plain 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Kind: "bad_request"})
}

// Decode reads the request body into v.
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
