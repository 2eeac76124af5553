package user

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/umoc-outing-club/gear-locker/internal/auth"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

type ServiceAPI interface {
	SignUp(ctx context.Context, dto SignUpDTO) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetPossession(ctx context.Context, identifier string) (*PossessionResponse, error)
	Update(ctx context.Context, userID string, dto UpdateUserDTO, canManage bool) error
	Delete(ctx context.Context, userID string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// CreateUser handles POST /api/createUser
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto SignUpDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.SignUp(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, CreatedResponse{
		ID:      u.ID,
		Message: fmt.Sprintf("Created a new user: %s", u.ID),
	})
}

// GetAllUsers handles GET /api/getAllusers
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, u.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /api/getUser?userId=
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByID(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// GetUserByIdentifier handles GET /api/getUserById?identifier=
func (h *Handler) GetUserByIdentifier(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByIdentifier(r.Context(), r.URL.Query().Get("identifier"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// GetGearByUser handles GET /api/getGearByUser/{identifier}
func (h *Handler) GetGearByUser(w http.ResponseWriter, r *http.Request) {
	possession, err := h.Service.GetPossession(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, possession)
}

// UpdateUser handles PUT /api/users/{userId}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("UpdateUser: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := chi.URLParam(r, "userId")
	if err := h.Service.Update(r.Context(), userID, dto, actor.IsLockerManager()); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CreatedResponse{ID: userID})
}

// DeleteUser handles DELETE /api/users/{userId}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := h.Service.Delete(r.Context(), userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
