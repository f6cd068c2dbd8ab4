// internal/membership/handler.go
package membership

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"biblioteca/internal/api"
	"biblioteca/internal/auth"
)

type Handler struct {
	service Service
	tokens  *auth.TokenIssuer
}

func NewHandler(service Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = RoleStudent
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := UserFilter{Role: Role(r.URL.Query().Get("role"))}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			api.BadRequest(w, "active must be true or false")
			return
		}
		filter.Active = &active
	}
	filter.Page, filter.PageSize = api.PageParams(r)

	users, total, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.Page(w, http.StatusOK, users, total, filter.Page, filter.PageSize)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid user id")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, user)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid user id")
		return
	}

	var input UpdateUserInput
	if err := api.Decode(r, &input); err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, input)
	if err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, user)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, true)
}
