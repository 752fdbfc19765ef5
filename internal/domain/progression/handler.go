package progression

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luvy/luvy-api/internal/middleware"
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

// Level handles GET /progression/level
func (h *Handler) Level(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	l, err := h.svc.GetUserLevel(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, LevelResponseFromEntity(l))
}

// Achievements handles GET /progression/achievements
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	list, err := h.svc.GetAchievements(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, list)
}

// Challenges handles GET /progression/challenges
func (h *Handler) Challenges(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	list, err := h.svc.GetChallenges(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, list)
}

// Referrals handles GET /progression/referrals
func (h *Handler) Referrals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	list, err := h.svc.GetReferrals(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, list)
}

// CreateReferral handles POST /progression/referrals
func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	ref, err := h.svc.CreateReferral(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Created(w, ref)
}

// CompleteReferral handles POST /progression/referrals/complete.
// The authenticated user is the one being referred.
func (h *Handler) CompleteReferral(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CompleteReferralRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	ref, err := h.svc.CompleteReferral(r.Context(), req.Code, userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, ref)
}

// CreateAchievement handles POST /admin/achievements
func (h *Handler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req CreateAchievementRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	a, err := req.ToEntity()
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	if err := h.svc.CreateAchievement(r.Context(), a); err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Created(w, a)
}

// CreateChallenge handles POST /admin/challenges
func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req CreateChallengeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	c := req.ToEntity()
	if err := h.svc.CreateChallenge(r.Context(), c); err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.Created(w, c)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/level", h.Level)
	r.Get("/achievements", h.Achievements)
	r.Get("/challenges", h.Challenges)
	r.Get("/referrals", h.Referrals)
	r.Post("/referrals", h.CreateReferral)
	r.Post("/referrals/complete", h.CompleteReferral)
	return r
}

// AchievementAdminRoutes is mounted at /admin/achievements
func (h *Handler) AchievementAdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminMiddleware)
	r.Post("/", h.CreateAchievement)
	return r
}

// ChallengeAdminRoutes is mounted at /admin/challenges
func (h *Handler) ChallengeAdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminMiddleware)
	r.Post("/", h.CreateChallenge)
	return r
}
