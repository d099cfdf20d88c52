package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anthurium-ai/personal-finance/internal/auth"
	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps err onto a status code and writes it as {"error": ...}.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{"authentication credentials were not provided or are invalid"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{"not found"})
	case errors.Is(err, store.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody{"already exists"})
	default:
		a.logger().ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{"internal error"})
	}
}

// decode reads a JSON body of at most maxJSONBody bytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &model.FieldError{Field: "body", Message: "empty request body"}
		}
		return &model.FieldError{Field: "body", Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
}

// pathID parses the {id} URL parameter. Anything but a positive integer is
// reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}

// userID returns the authenticated user. Routes that call it sit behind the
// token middleware.
func userID(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}

// Pagination defaults.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination reads page (1-based) and page_size.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	page, size := 1, defaultPageSize
	if s := q.Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil || page < 1 {
			return 0, 0, store.ErrNotFound
		}
	}
	if s := q.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err == nil && n > 0 {
			size = min(n, maxPageSize)
		}
	}
	return size, (page - 1) * size, nil
}

// pageInRange rejects pages past the last one, except the first page of an
// empty listing.
func pageInRange(count, offset int) error {
	if offset > 0 && offset >= count {
		return store.ErrNotFound
	}
	return nil
}
