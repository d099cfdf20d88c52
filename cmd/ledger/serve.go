package main

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/anthurium-ai/personal-finance/internal/app"
	"github.com/anthurium-ai/personal-finance/internal/auth"
	"github.com/anthurium-ai/personal-finance/internal/metrics"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default :8787)")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set LEDGER_AUTH_JWT_SECRET)")
	}
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	met := metrics.New(st)
	met.Register(prometheus.DefaultRegisterer)

	sug, cleanup, err := newSuggester(st, suggest.WithObserver(met))
	if err != nil {
		return err
	}
	defer cleanup()

	a := &app.App{
		Store:          st,
		Tokens:         tokens,
		Suggester:      sug,
		Met:            met,
		Logger:         slog.Default(),
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	slog.Info("starting ledger",
		"driver", cfg.Database.Driver,
		"warm_threshold", cfg.Suggest.WarmThreshold,
		"history_limit", cfg.Suggest.HistoryLimit,
		"index_cache", cfg.Suggest.IndexCache)
	return app.Run(ctx, a, app.Config{Addr: cfg.Server.Addr})
}
