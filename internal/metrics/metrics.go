package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// StatsSource reports ledger aggregates.
type StatsSource interface {
	Stats(ctx context.Context) (model.Stats, error)
}

type Collector struct {
	src StatsSource

	// Ledger gauges, recomputed by Refresh.
	users         prometheus.Gauge
	categories    prometheus.Gauge
	transactions  *prometheus.GaugeVec
	uncategorized prometheus.Gauge

	// Suggestion engine.
	suggestions       *prometheus.CounterVec
	suggestionLatency *prometheus.HistogramVec
	suggestionResults prometheus.Histogram
	historyErrors     prometheus.Counter
}

func New(src StatsSource) *Collector {
	c := &Collector{src: src}

	c.users = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pf",
		Name:      "users",
		Help:      "Registered users",
	})
	c.categories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pf",
		Name:      "categories",
		Help:      "Categories across all users",
	})
	c.transactions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pf",
		Name:      "transactions",
		Help:      "Transactions by type (income or expense)",
	}, []string{"type"})
	c.uncategorized = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pf",
		Name:      "transactions_uncategorized",
		Help:      "Transactions without a category",
	})

	c.suggestions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pf",
		Name:      "category_suggestions_total",
		Help:      "Category suggestion requests by regime (empty, cold, warm)",
	}, []string{"regime"})
	c.suggestionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pf",
		Name:      "category_suggestion_seconds",
		Help:      "Time spent computing a suggestion, history fetch included",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"regime"})
	c.suggestionResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pf",
		Name:      "category_suggestion_results",
		Help:      "Number of categories returned per suggestion",
		Buckets:   []float64{0, 1, 2, 3},
	})
	c.historyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pf",
		Name:      "category_suggestion_history_errors_total",
		Help:      "History fetches that failed and fell back to rules",
	})

	return c
}

func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.users,
		c.categories,
		c.transactions,
		c.uncategorized,
		c.suggestions,
		c.suggestionLatency,
		c.suggestionResults,
		c.historyErrors,
	)
}

// Refresh recomputes the ledger gauges (call on each scrape).
func (c *Collector) Refresh(ctx context.Context) error {
	st, err := c.src.Stats(ctx)
	if err != nil {
		return err
	}
	c.users.Set(float64(st.Users))
	c.categories.Set(float64(st.Categories))
	c.transactions.WithLabelValues(string(model.TypeIncome)).Set(float64(st.IncomeCount))
	c.transactions.WithLabelValues(string(model.TypeExpense)).Set(float64(st.ExpenseCount))
	c.uncategorized.Set(float64(st.Uncategorized))
	return nil
}

// ObserveSuggestion records one suggestion request.
func (c *Collector) ObserveSuggestion(regime string, results int, elapsed time.Duration) {
	c.suggestions.WithLabelValues(regime).Inc()
	c.suggestionLatency.WithLabelValues(regime).Observe(elapsed.Seconds())
	c.suggestionResults.Observe(float64(results))
}

// ObserveHistoryError records a failed history fetch.
func (c *Collector) ObserveHistoryError() {
	c.historyErrors.Inc()
}
