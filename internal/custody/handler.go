package custody

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/umoc-outing-club/gear-locker/internal/transport"
	"github.com/umoc-outing-club/gear-locker/pkg/logger"
)

type ServiceAPI interface {
	CheckGear(ctx context.Context, req CheckGearRequest, dir Direction) (*Record, error)
	ListRecords(ctx context.Context, q LogQuery) ([]*Record, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CheckGear handles POST /api/checkGear/{flag}.
func (h *Handler) CheckGear(w http.ResponseWriter, r *http.Request) {
	dir, err := ParseDirection(chi.URLParam(r, "flag"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var req CheckGearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CheckGear: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.CheckGear(r.Context(), req, dir)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

// ListRecords handles GET /api/checkOuts.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := LogQuery{
		GearTag:    query.Get("gearID"),
		BorrowerID: query.Get("userID"),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			q.Limit = l
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			q.Offset = o
		}
	}
	q.Normalize()

	records, err := h.Service.ListRecords(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RecordsResponse{
		Records: records,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}
