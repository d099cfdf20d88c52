package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anthurium-ai/personal-finance/internal/importer"
	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
)

// txInput is the writable part of a transaction.
type txInput struct {
	Description string                `json:"description"`
	Value       decimal.Decimal       `json:"value"`
	Type        model.TransactionType `json:"transaction_type"`
	Date        string                `json:"date"`
	CategoryID  *int64                `json:"category"`
}

func (in txInput) apply(t *model.Transaction) {
	t.Description = in.Description
	t.Value = in.Value
	t.Type = in.Type
	t.Date = in.Date
	t.CategoryID = in.CategoryID
}

// checkCategory rejects a category id that is not the user's own.
func (a *App) checkCategory(r *http.Request, t *model.Transaction) error {
	if t.CategoryID == nil {
		return nil
	}
	_, err := a.Store.Category(r.Context(), t.UserID, *t.CategoryID)
	if errors.Is(err, store.ErrNotFound) {
		return &model.FieldError{Field: "category", Message: fmt.Sprintf("invalid pk %d", *t.CategoryID)}
	}
	return err
}

// saveTransaction validates t and stores it, then reloads it so the response carries
// the category name.
func (a *App) saveTransaction(r *http.Request, t *model.Transaction, create bool) (*model.Transaction, error) {
	if err := t.Validate(a.now()); err != nil {
		return nil, err
	}
	if err := a.checkCategory(r, t); err != nil {
		return nil, err
	}
	var err error
	if create {
		err = a.Store.CreateTransaction(r.Context(), t, "")
	} else {
		err = a.Store.UpdateTransaction(r.Context(), t)
	}
	if err != nil {
		return nil, err
	}
	return a.Store.Transaction(r.Context(), t.UserID, t.ID)
}

func (a *App) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in txInput
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	t := &model.Transaction{UserID: userID(r)}
	in.apply(t)
	saved, err := a.saveTransaction(r, t, true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (a *App) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Store.Transaction(r.Context(), userID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *App) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Store.Transaction(r.Context(), userID(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in txInput
	if err := decode(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	in.apply(t)
	saved, err := a.saveTransaction(r, t, false)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *App) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Store.DeleteTransaction(r.Context(), userID(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transactionFilter reads the listing query: tipo, categoria, data, search,
// ordering, page and page_size.
func transactionFilter(r *http.Request) (model.TransactionFilter, error) {
	q := r.URL.Query()
	var f model.TransactionFilter

	if s := q.Get("tipo"); s != "" {
		f.Type = model.TransactionType(s)
		if !f.Type.Valid() {
			return f, &model.FieldError{Field: "tipo", Message: fmt.Sprintf("%q is not a valid choice", s)}
		}
	}
	if s := q.Get("categoria"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, &model.FieldError{Field: "categoria", Message: "enter a whole number"}
		}
		f.CategoryID = &id
	}
	if s := q.Get("data"); s != "" {
		if _, err := time.Parse(model.DateLayout, s); err != nil {
			return f, &model.FieldError{Field: "data", Message: "use the YYYY-MM-DD format"}
		}
		f.Date = s
	}
	f.Search = q.Get("search")
	if s := q.Get("ordering"); model.Orderings[s] {
		f.Ordering = s
	}

	limit, offset, err := pagination(r)
	if err != nil {
		return f, err
	}
	f.Limit, f.Offset = limit, offset
	return f, nil
}

func (a *App) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	page, err := a.Store.ListTransactions(r.Context(), userID(r), f)
	if err == nil {
		err = pageInRange(page.Count, f.Offset)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *App) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		a.fail(w, r, &model.FieldError{Field: "file", Message: "missing file"})
		return
	}
	defer f.Close()

	res, err := importer.ImportCSV(r.Context(), a.Store, userID(r), f, a.now())
	if errors.Is(err, importer.ErrFormat) {
		a.fail(w, r, &model.FieldError{Field: "file", Message: err.Error()})
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger().InfoContext(r.Context(), "csv imported",
		"user_id", userID(r), "file", hdr.Filename,
		"rows", res.Rows, "inserted", res.Inserted, "skipped", res.Skipped)
	writeJSON(w, http.StatusOK, res)
}
