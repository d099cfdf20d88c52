package app

import (
	"context"
	"net/http"

	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

// storeHistory feeds the suggester from the store, most recent first.
type storeHistory struct {
	st    store.Store
	limit int
}

// NewHistory adapts st to suggest.HistoryFetcher, reading at most limit
// categorized transactions per request (0 means all of them).
func NewHistory(st store.Store, limit int) suggest.HistoryFetcher {
	return storeHistory{st: st, limit: limit}
}

func (h storeHistory) CategorizedHistory(ctx context.Context, userID int64) ([]model.TransactionRecord, error) {
	return h.st.CategorizedHistory(ctx, userID, h.limit)
}

// handleSuggestions answers GET ?q= with a JSON array of category names. It
// always succeeds.
func (a *App) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	res := a.Suggester.Suggest(r.Context(), userID(r), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, res.Categories)
}
