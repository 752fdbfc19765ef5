package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luvy/luvy-api/internal/config"
	"github.com/luvy/luvy-api/internal/domain/market"
	"github.com/luvy/luvy-api/internal/domain/progression"
	"github.com/luvy/luvy-api/internal/domain/receipt"
	"github.com/luvy/luvy-api/internal/domain/wallet"
	"github.com/luvy/luvy-api/internal/middleware"
	pkgresponse "github.com/luvy/luvy-api/internal/pkg/response"
)

type handlers struct {
	wallet      *wallet.Handler
	receipt     *receipt.Handler
	market      *market.Handler
	progression *progression.Handler
}

const requestTimeout = 10 * time.Second

func newRouter(cfg *config.Config, h handlers, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	adminMiddleware := middleware.RequireAdmin()

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				pkgresponse.OK(w, map[string]string{"message": "pong"})
			})

			r.Mount("/wallet", h.wallet.Routes(authMiddleware))
			r.Mount("/receipts", h.receipt.Routes(authMiddleware))
			r.Mount("/market", h.market.Routes())
			r.Mount("/progression", h.progression.Routes(authMiddleware))
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Mount("/receipts", h.receipt.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/achievements", h.progression.AchievementAdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/challenges", h.progression.ChallengeAdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/market", h.market.AdminRoutes(authMiddleware, adminMiddleware))
			r.Mount("/wallets", h.wallet.AdminRoutes(authMiddleware, adminMiddleware))
		})
	})

	return r
}
