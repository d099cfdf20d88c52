package main

import (
	"context"
	"log/slog"

	"github.com/anthurium-ai/personal-finance/internal/app"
	"github.com/anthurium-ai/personal-finance/internal/store"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		URL:    cfg.Database.URL,
	})
}

// newSuggester wires the configured rule table and history source. The
// returned cleanup closes the index cache, if any.
func newSuggester(st store.Store, options ...suggest.Option) (*suggest.Suggester, func(), error) {
	cleanup := func() {}
	options = append(options, suggest.WithLogger(slog.Default()))
	if cfg.Suggest.IndexCache {
		cache, err := suggest.NewIndexCache(0)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, suggest.WithIndexCache(cache))
		cleanup = cache.Close
	}
	s := suggest.New(
		cfg.Suggest.RuleTable(),
		app.NewHistory(st, cfg.Suggest.HistoryLimit),
		cfg.Suggest.Options(),
		options...,
	)
	return s, cleanup, nil
}
