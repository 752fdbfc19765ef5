package market

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luvy/luvy-api/internal/pkg/errorhandler"
	"github.com/luvy/luvy-api/internal/pkg/response"
	"github.com/luvy/luvy-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Current handles GET /market
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	md, err := h.svc.GetCurrent(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, md)
}

// History handles GET /market/history?interval=hour&limit=100
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	interval := Interval(r.URL.Query().Get("interval"))
	if interval == "" {
		interval = IntervalHour
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	points, err := h.svc.GetHistory(r.Context(), interval, limit)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, points)
}

// Stats handles GET /market/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, stats)
}

// Snapshot handles POST /admin/market/snapshot
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	point, err := h.svc.Snapshot(r.Context(), Interval(req.Interval))
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Created(w, point)
}

// Routes returns the public market routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Current)
	r.Get("/history", h.History)
	r.Get("/stats", h.Stats)
	return r
}

// AdminRoutes returns the market admin routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminMiddleware)
	r.Post("/snapshot", h.Snapshot)
	return r
}
