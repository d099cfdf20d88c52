// Package suggest ranks the categories a user is likely to pick for a new
// transaction description.
//
// Two signals are blended: a fixed keyword table (RuleTable) and a TF-IDF
// cosine ranking over the user's own categorized history (Index). Users with
// little history get both, merged; users with enough history get the
// similarity ranking alone.
package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// Default policy values.
const (
	DefaultLimit         = 3
	DefaultWarmThreshold = 10
)

// Regime names the strategy used for a request.
type Regime string

const (
	// RegimeEmpty means the query was blank and nothing was computed.
	RegimeEmpty Regime = "empty"
	// RegimeCold merges rules with similarity for sparse history.
	RegimeCold Regime = "cold"
	// RegimeWarm uses similarity alone.
	RegimeWarm Regime = "warm"
)

// HistoryFetcher returns a user's transactions that already carry a category.
type HistoryFetcher interface {
	CategorizedHistory(ctx context.Context, userID int64) ([]model.TransactionRecord, error)
}

// Observer receives one call per suggestion. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveSuggestion(regime string, results int, elapsed time.Duration)
	ObserveHistoryError()
}

// Options tunes a Suggester. Zero values fall back to the defaults.
type Options struct {
	Limit         int
	WarmThreshold int
}

// Result is an ordered list of unique category names, most likely first.
type Result struct {
	Categories []string
	Regime     Regime
	History    int
}

// Suggester runs the suggestion policy. It holds no per-request state.
type Suggester struct {
	rules    *RuleTable
	history  HistoryFetcher
	cache    *IndexCache
	observer Observer
	logger   *slog.Logger
	opts     Options
}

// Option configures optional Suggester collaborators.
type Option func(*Suggester)

// WithIndexCache reuses indexes for unchanged histories.
func WithIndexCache(c *IndexCache) Option {
	return func(s *Suggester) { s.cache = c }
}

// WithObserver reports every suggestion to o.
func WithObserver(o Observer) Option {
	return func(s *Suggester) { s.observer = o }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suggester) { s.logger = l }
}

// New returns a Suggester. A nil rules table means DefaultRules.
func New(rules *RuleTable, history HistoryFetcher, opts Options, options ...Option) *Suggester {
	if rules == nil {
		rules = NewRuleTable(DefaultRules)
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.WarmThreshold <= 0 {
		opts.WarmThreshold = DefaultWarmThreshold
	}
	s := &Suggester{
		rules:   rules,
		history: history,
		opts:    opts,
		logger:  slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Suggest returns the categories userID is likely to choose for rawQuery.
// It never fails: a history error is logged and the rules alone answer.
func (s *Suggester) Suggest(ctx context.Context, userID int64, rawQuery string) Result {
	start := time.Now()
	query := strings.ToLower(strings.TrimSpace(rawQuery))
	if query == "" {
		return s.finish(Result{Categories: []string{}, Regime: RegimeEmpty}, start)
	}

	history, err := s.history.CategorizedHistory(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "history fetch failed, falling back to rules",
			"user_id", userID, "error", err)
		if s.observer != nil {
			s.observer.ObserveHistoryError()
		}
		history = nil
	}

	res := Result{History: len(history)}
	if len(history) < s.opts.WarmThreshold {
		res.Regime = RegimeCold
		rules := s.rules.Classify(query, s.opts.Limit)
		similar := s.rank(userID, query, history)
		res.Categories = Merge(rules, similar, s.opts.Limit)
	} else {
		res.Regime = RegimeWarm
		res.Categories = s.rank(userID, query, history)
	}

	s.logger.DebugContext(ctx, "suggested categories",
		"user_id", userID,
		"regime", res.Regime,
		"history", res.History,
		"categories", res.Categories)
	return s.finish(res, start)
}

func (s *Suggester) rank(userID int64, query string, history []model.TransactionRecord) []string {
	if len(history) == 0 {
		return []string{}
	}
	var ix *Index
	if s.cache != nil {
		ix = s.cache.Index(userID, history)
	} else {
		ix = NewIndex(history)
	}
	return ix.Rank(query, s.opts.Limit)
}

func (s *Suggester) finish(res Result, start time.Time) Result {
	if s.observer != nil {
		s.observer.ObserveSuggestion(string(res.Regime), len(res.Categories), time.Since(start))
	}
	return res
}
