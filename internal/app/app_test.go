package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthurium-ai/personal-finance/internal/auth"
	"github.com/anthurium-ai/personal-finance/internal/db"
	"github.com/anthurium-ai/personal-finance/internal/metrics"
	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	st  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, Path: db.Memory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	met := metrics.New(st)
	met.Register(reg)

	a := &App{
		Store:  st,
		Tokens: tokens,
		Suggester: suggest.New(nil, NewHistory(st, 5000), suggest.Options{},
			suggest.WithLogger(logger), suggest.WithObserver(met)),
		Met:            met,
		Gatherer:       reg,
		Logger:         logger,
		RequestTimeout: 5 * time.Second,
		Now:            func() time.Time { return testNow },
	}
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, st: st}
}

// do sends body as JSON (unless it is an io.Reader) and decodes the
// response into out when out is non-nil.
func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	reg := model.Registration{Name: "Ana", Username: email, Email: email, Password: "pw", ConfirmPassword: "pw"}
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/user/register", "", reg, nil))

	var tok tokenResponse
	require.Equal(s.t, http.StatusOK, s.do(http.MethodPost, "/api/token", "", credentials{Email: email, Password: "pw"}, &tok))
	require.NotEmpty(s.t, tok.Access)
	return tok.Access
}

func (s *testServer) category(token, name string) model.Category {
	s.t.Helper()
	var c model.Category
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/categories", token, map[string]any{"name": name}, &c))
	return c
}

func (s *testServer) transaction(token, desc string, cat *int64) model.Transaction {
	s.t.Helper()
	in := map[string]any{"description": desc, "value": "10.00", "transaction_type": "expense", "date": "2024-05-01", "category": cat}
	var tx model.Transaction
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/api/transactions", token, in, &tx))
	return tx
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.srv.Client().Get(s.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndToken(t *testing.T) {
	s := newTestServer(t)

	var u map[string]any
	reg := model.Registration{Name: "Ana", Username: "ana", Email: "Ana@Example.com ", Password: "pw", ConfirmPassword: "pw"}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/user/register", "", reg, &u))
	assert.Equal(t, "ana@example.com", u["email"])
	assert.NotContains(t, u, "password_hash")
	assert.NotContains(t, u, "PasswordHash")

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/user/register", "", reg, nil))

	bad := reg
	bad.Email, bad.ConfirmPassword = "other@example.com", "nope"
	var e errorBody
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/user/register", "", bad, &e))
	assert.Contains(t, e.Error, "confirm_password")

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/token", "", credentials{Email: "ana@example.com", Password: "wrong"}, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/token", "", credentials{Email: "nobody@example.com", Password: "pw"}, nil))

	var tok tokenResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/token", "", credentials{Email: "ana@example.com", Password: "pw"}, &tok))
	assert.NotEmpty(t, tok.Access)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/categories", "/api/transactions", "/api/categories/suggestions?q=uber"} {
		var e errorBody
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, path, "", nil, &e), path)
		assert.NotEmpty(t, e.Error)
	}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/categories", "garbage", nil, nil))
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")
	bia := s.register("bia@example.com")

	c := s.category(ana, "Casa")
	assert.Equal(t, model.DefaultCategoryColor, c.Color)
	assert.Nil(t, c.MonthlyLimit)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/categories", ana, map[string]any{"name": "Casa"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/categories", ana, map[string]any{"name": "X", "color": "red"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/categories", ana, map[string]any{"name": "X", "monthly_limit": "-1"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/categories", ana, map[string]any{"name": "X", "bogus": 1}, nil))

	path := fmt.Sprintf("/api/categories/%d", c.ID)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, bia, nil, nil))

	var updated model.Category
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path, ana, map[string]any{"name": "Moradia", "color": "#00ff00", "monthly_limit": "1500.00"}, &updated))
	assert.Equal(t, "Moradia", updated.Name)
	require.NotNil(t, updated.MonthlyLimit)
	assert.Equal(t, "1500.00", updated.MonthlyLimit.StringFixed(2))

	var page model.Page[model.Category]
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categories/", ana, nil, &page))
	assert.Equal(t, 1, page.Count)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categories", bia, nil, &page))
	assert.Equal(t, 0, page.Count)
	assert.NotNil(t, page.Results)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, bia, nil, nil))
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, ana, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, ana, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/categories/abc", ana, nil, nil))
}

func TestTransactions(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")
	bia := s.register("bia@example.com")
	lazer := s.category(ana, "Lazer")
	biaCat := s.category(bia, "Lazer")

	tx := s.transaction(ana, "Cinema", &lazer.ID)
	assert.Equal(t, "Lazer", tx.CategoryName)
	assert.Equal(t, model.TypeExpense, tx.Type)
	s.transaction(ana, "Mercado", nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"future date", map[string]any{"description": "x", "value": "1", "transaction_type": "expense", "date": "2024-06-02"}},
		{"zero value", map[string]any{"description": "x", "value": "0", "transaction_type": "expense", "date": "2024-05-01"}},
		{"bad type", map[string]any{"description": "x", "value": "1", "transaction_type": "gift", "date": "2024-05-01"}},
		{"long description", map[string]any{"description": strings.Repeat("a", 201), "value": "1", "transaction_type": "expense", "date": "2024-05-01"}},
		{"other user's category", map[string]any{"description": "x", "value": "1", "transaction_type": "expense", "date": "2024-05-01", "category": biaCat.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/transactions", ana, tt.body, nil))
		})
	}

	path := fmt.Sprintf("/api/transactions/%d", tx.ID)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, bia, nil, nil))

	var updated model.Transaction
	in := map[string]any{"description": "Cinema IMAX", "value": 42.5, "transaction_type": "expense", "date": "2024-05-01", "category": nil}
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path, ana, in, &updated))
	assert.Equal(t, "Cinema IMAX", updated.Description)
	assert.Nil(t, updated.CategoryID)
	assert.Equal(t, "42.50", updated.Value.StringFixed(2))

	var page model.Page[model.Transaction]
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/transactions?search=imax", ana, nil, &page))
	assert.Equal(t, 1, page.Count)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/transactions?page_size=1&page=2", ana, nil, &page))
	assert.Equal(t, 2, page.Count)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/transactions?page=3", ana, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/transactions?tipo=gift", ana, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/transactions?data=01-05-2024", ana, nil, nil))
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/transactions?tipo=income", ana, nil, &page))
	assert.Equal(t, 0, page.Count)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, ana, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, ana, nil, nil))
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")

	var got []string
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categories/suggestions?q=", ana, nil, &got))
	assert.Equal(t, []string{}, got)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categorias/sugestoes?q=Uber+para+o+aeroporto", ana, nil, &got))
	assert.Equal(t, []string{"Transporte"}, got)

	saude := s.category(ana, "Saúde")
	for i := 0; i < 12; i++ {
		s.transaction(ana, fmt.Sprintf("consulta dentista %d", i), &saude.ID)
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categories/suggestions?q=consulta+no+dentista", ana, nil, &got))
	assert.Equal(t, []string{"Saúde"}, got)

	// Another user's history does not leak.
	bia := s.register("bia@example.com")
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/categories/suggestions?q=consulta", bia, nil, &got))
	assert.Equal(t, []string{}, got)
}

func TestImport(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")

	upload := func(content string) (int, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "ledger.csv")
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/transactions/import", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+ana)
		resp, err := s.srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	csv := "Date,Description,Amount,Category\n2024-05-01,Cinema,-30,Lazer\n2024-05-02,Salário,1000,\n"
	status, out := upload(csv)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, out["inserted"])

	status, out = upload(csv)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, out["inserted"])
	assert.EqualValues(t, 2, out["skipped"])

	status, _ = upload("Nope\n1\n")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	ana := s.register("ana@example.com")
	s.do(http.MethodGet, "/api/categories/suggestions?q=uber", ana, nil, nil)

	resp, err := s.srv.Client().Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "pf_users 1")
	assert.Contains(t, string(body), `pf_category_suggestions_total{regime="cold"} 1`)
}
