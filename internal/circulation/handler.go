// internal/circulation/handler.go
package circulation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"biblioteca/internal/api"
	"biblioteca/internal/faults"
)

const dateLayout = "2006-01-02"

type Handler struct {
	loans Service
	fines FineService
}

func NewHandler(loans Service, fines FineService) *Handler {
	return &Handler{loans: loans, fines: fines}
}

type createLoanRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	BookID   uuid.UUID `json:"book_id"`
	LoanDate string    `json:"loan_date"`
}

type cancelFineRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	loanDate := time.Now().UTC()
	if req.LoanDate != "" {
		parsed, err := time.Parse(dateLayout, req.LoanDate)
		if err != nil {
			api.BadRequest(w, "loan_date must use the YYYY-MM-DD format")
			return
		}
		loanDate = parsed
	}

	loan, err := h.loans.CreateLoan(r.Context(), req.UserID, req.BookID, loanDate)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) HandleReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid loan id")
		return
	}

	returnDate := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			api.BadRequest(w, "date must use the YYYY-MM-DD format")
			return
		}
		returnDate = parsed
	}

	loan, err := h.loans.ReturnLoan(r.Context(), id, returnDate)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if loan == nil {
		api.Error(w, r, faults.NotFound("loan %s not found", id))
		return
	}
	api.JSON(w, http.StatusOK, loan)
}

func (h *Handler) HandleListLoans(w http.ResponseWriter, r *http.Request) {
	filter := LoanFilter{Status: LoanStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			api.BadRequest(w, "invalid user_id")
			return
		}
		filter.UserID = &userID
	}
	if raw := r.URL.Query().Get("book_id"); raw != "" {
		bookID, err := uuid.Parse(raw)
		if err != nil {
			api.BadRequest(w, "invalid book_id")
			return
		}
		filter.BookID = &bookID
	}
	filter.Page, filter.PageSize = api.PageParams(r)

	loans, total, err := h.loans.ListLoans(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Page(w, http.StatusOK, loans, total, filter.Page, filter.PageSize)
}

func (h *Handler) HandleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid loan id")
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, loan)
}

func (h *Handler) HandleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid loan id")
		return
	}

	if err := h.loans.DeleteLoan(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, true)
}

func (h *Handler) HandlePayFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid fine id")
		return
	}

	paid, err := h.fines.PayFine(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if !paid {
		api.Error(w, r, faults.NotFound("fine %s not found", id))
		return
	}
	api.JSON(w, http.StatusOK, true)
}

func (h *Handler) HandleCancelFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid fine id")
		return
	}

	var req cancelFineRequest
	if r.ContentLength > 0 {
		if err := api.Decode(r, &req); err != nil {
			api.BadRequest(w, err.Error())
			return
		}
	}

	canceled, err := h.fines.CancelFine(r.Context(), id, req.Reason)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	if !canceled {
		api.Error(w, r, faults.NotFound("fine %s not found", id))
		return
	}
	api.JSON(w, http.StatusOK, true)
}

func (h *Handler) HandleCreateFine(w http.ResponseWriter, r *http.Request) {
	var input FineInput
	if err := api.Decode(r, &input); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	fine, err := h.fines.CreateFine(r.Context(), input)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, fine)
}

func (h *Handler) HandleListFines(w http.ResponseWriter, r *http.Request) {
	filter := FineFilter{Status: FineStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			api.BadRequest(w, "invalid user_id")
			return
		}
		filter.UserID = &userID
	}
	if raw := r.URL.Query().Get("loan_id"); raw != "" {
		loanID, err := uuid.Parse(raw)
		if err != nil {
			api.BadRequest(w, "invalid loan_id")
			return
		}
		filter.LoanID = &loanID
	}
	filter.Page, filter.PageSize = api.PageParams(r)

	fines, total, err := h.fines.ListFines(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Page(w, http.StatusOK, fines, total, filter.Page, filter.PageSize)
}

func (h *Handler) HandleGetFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid fine id")
		return
	}

	fine, err := h.fines.GetFine(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, fine)
}

func (h *Handler) HandleUpdateFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid fine id")
		return
	}

	var input FineInput
	if err := api.Decode(r, &input); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	fine, err := h.fines.UpdateFine(r.Context(), id, input)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, fine)
}

func (h *Handler) HandleDeleteFine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid fine id")
		return
	}

	if err := h.fines.DeleteFine(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, true)
}
