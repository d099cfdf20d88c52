package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anthurium-ai/personal-finance/internal/auth"
	"github.com/anthurium-ai/personal-finance/internal/logging"
	"github.com/anthurium-ai/personal-finance/internal/metrics"
	"github.com/anthurium-ai/personal-finance/internal/store"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

// App serves the ledger JSON API.
type App struct {
	Store     store.Store
	Tokens    *auth.Tokens
	Suggester *suggest.Suggester
	Met       *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger

	// RequestTimeout bounds every request; zero disables it.
	RequestTimeout time.Duration
	// Now is the clock used for the future-date check; time.Now if nil.
	Now func() time.Time
}

type Config struct {
	Addr string
}

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 25 << 20
)

func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(a.logger()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if a.RequestTimeout > 0 {
		r.Use(middleware.Timeout(a.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// metrics (refresh on scrape)
	r.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Met != nil {
			if err := a.Met.Refresh(r.Context()); err != nil {
				a.logger().WarnContext(r.Context(), "metrics refresh failed", "error", err)
			}
		}
		a.metricsHandler().ServeHTTP(w, r)
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", a.handleRegister)
		r.Post("/token", a.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(a.Tokens.Middleware(a.fail))

			r.Get("/categories", a.handleListCategories)
			r.Post("/categories", a.handleCreateCategory)
			r.Get("/categories/suggestions", a.handleSuggestions)
			r.Get("/categorias/sugestoes", a.handleSuggestions)
			r.Get("/categories/{id}", a.handleGetCategory)
			r.Put("/categories/{id}", a.handleUpdateCategory)
			r.Delete("/categories/{id}", a.handleDeleteCategory)

			r.Get("/transactions", a.handleListTransactions)
			r.Post("/transactions", a.handleCreateTransaction)
			r.Post("/transactions/import", a.handleImport)
			r.Get("/transactions/{id}", a.handleGetTransaction)
			r.Put("/transactions/{id}", a.handleUpdateTransaction)
			r.Delete("/transactions/{id}", a.handleDeleteTransaction)
		})
	})
	return r
}

func (a *App) metricsHandler() http.Handler {
	if a.Gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(a.Gatherer, promhttp.HandlerOpts{})
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, a *App, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	}()

	a.logger().InfoContext(ctx, "ledger listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
