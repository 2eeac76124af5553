package gear

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

type ServiceAPI interface {
	GetAll(ctx context.Context) ([]*Gear, error)
	GetByTag(ctx context.Context, gearTag string) (*Gear, error)
	Create(ctx context.Context, dto CreateGearDTO) (*Gear, error)
	Update(ctx context.Context, gearTag string, dto UpdateGearDTO) (*Gear, error)
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

// GetAllGear handles GET /api/getAllGear
func (h *Handler) GetAllGear(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}

// GetGearByID handles GET /api/getGearById?identifier=
func (h *Handler) GetGearByID(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.GetByTag(r.Context(), r.URL.Query().Get("identifier"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, g.ToResponse())
}

// CreateGear handles POST /api/gear
func (h *Handler) CreateGear(w http.ResponseWriter, r *http.Request) {
	var dto CreateGearDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateGear: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, SavedResponse{
		ID:      g.GearTag,
		Message: fmt.Sprintf("Created gear: %s", g.GearTag),
	})
}

// UpdateGear handles PUT /api/gear/{gearTag}
func (h *Handler) UpdateGear(w http.ResponseWriter, r *http.Request) {
	var dto UpdateGearDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateGear: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Service.Update(r.Context(), chi.URLParam(r, "gearTag"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, SavedResponse{ID: g.GearTag})
}
