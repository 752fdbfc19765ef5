package wallet

import (
	"net/http"
	"strconv"

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

// Balance handles GET /wallet/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wallet, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, BalanceResponseFromEntity(wallet))
}

// Transactions handles GET /wallet/transactions?limit=50&offset=0
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, offset = historyPage(limit, offset)

	txs, err := h.svc.GetHistory(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.WithMeta(w, txs, response.Meta{Count: len(txs), Limit: limit, Offset: offset})
}

// Spend handles POST /wallet/spend
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req SpendRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	res, err := h.svc.Spend(r.Context(), userID, req.Amount, req.Description, ManualRef{Key: req.ReferenceID})
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, res)
}

// Adjust handles POST /admin/wallets/{userId}/adjust
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req AdjustRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	ref := ManualRef{Key: req.Key}
	txType := TransactionType(req.Type)

	var res *Result
	if txType.IsDebit() {
		res, err = h.svc.Debit(r.Context(), DebitRequest{
			UserID: userID, Amount: req.Amount, Type: txType, Description: req.Description, Reference: ref,
		})
	} else {
		res, err = h.svc.Credit(r.Context(), CreditRequest{
			UserID: userID, Amount: req.Amount, Type: txType, Description: req.Description, Reference: ref,
		})
	}
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, res)
}

// Verify handles GET /admin/wallets/{userId}/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	v, err := h.svc.VerifyLedger(r.Context(), userID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, err)
		return
	}
	response.OK(w, v)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	r.Post("/spend", h.Spend)
	return r
}

func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminMiddleware)
	r.Post("/{userId}/adjust", h.Adjust)
	r.Get("/{userId}/verify", h.Verify)
	return r
}
