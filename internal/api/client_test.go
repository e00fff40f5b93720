package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListSuppliersDecodesEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/suppliers", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "2", req.URL.Query().Get("page"))
		require.Equal(t, "10", req.URL.Query().Get("limit"))
		require.Equal(t, "mills", req.URL.Query().Get("search"))
		// List calls are plain GETs; nothing belongs in the request body.
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Empty(t, body)
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"id": 7, "name": "Harbor Mills", "status": "active", "balance": 2500},
			},
			"meta": map[string]any{"page": 2, "limit": 10, "total": 31, "totalPages": 4},
		})
	})
	c := newTestClient(t, r)

	rows, meta, err := c.ListSuppliers(context.Background(), ListParams{Page: 2, Limit: 10, Search: "mills"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].ID)
	require.Equal(t, int64(2500), rows[0].Balance)
	require.Equal(t, ListMeta{Page: 2, Limit: 10, Total: 31, TotalPages: 4}, meta)
}

func TestListRejectsMissingMeta(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/suppliers", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{}})
	})
	c := newTestClient(t, r)

	_, _, err := c.ListSuppliers(context.Background(), ListParams{})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetRejectsMalformedBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "not a number"`))
	})
	c := newTestClient(t, r)

	_, err := c.GetProduct(context.Background(), 5)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestErrorTaxonomy(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/suppliers/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "supplier not found"})
	})
	r.Get("/customers/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"statusCode": 409, "message": "phone already in use"})
	})
	r.Post("/transactions/purchase/drafts", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"statusCode": 400,
			"message":    "validation failed",
			"errors": []map[string]string{
				{"field": "lines[0].quantity", "message": "must be at least 1"},
			},
		})
	})
	c := newTestClient(t, r)

	_, err := c.GetSupplier(context.Background(), 1)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsNotFound())
	require.Equal(t, "supplier not found", apiErr.UserMessage())

	_, err = c.GetCustomer(context.Background(), 1)
	apiErr, ok = AsError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsConflict())

	_, err = c.CreateDraft(context.Background(), KindPurchase, DraftRequest{}, "key")
	apiErr, ok = AsError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsFieldValidation())
	require.Len(t, apiErr.Fields, 1)
	require.Equal(t, "lines[0].quantity", apiErr.Fields[0].Field)
}

func TestGenericFailureFallbackMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/accounts", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	})
	c := newTestClient(t, r)

	_, _, err := c.ListAccounts(context.Background(), ListParams{})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.False(t, apiErr.IsNotFound())
	require.False(t, apiErr.IsFieldValidation())
	require.Equal(t, DefaultFailureMessage, apiErr.UserMessage())
}

func TestThrottledBackendSurfacesAsGenericFailure(t *testing.T) {
	r := chi.NewRouter()
	r.Use(httprate.Limit(1, time.Minute))
	r.Get("/customers", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{},
			"meta": map[string]any{"page": 1, "limit": 20, "total": 0, "totalPages": 0},
		})
	})
	c := newTestClient(t, r)

	_, _, err := c.ListCustomers(context.Background(), ListParams{})
	require.NoError(t, err)

	_, _, err = c.ListCustomers(context.Background(), ListParams{})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.False(t, apiErr.IsNotFound())
	require.False(t, apiErr.IsConflict())
}

func TestContextCancellationAbortsCall(t *testing.T) {
	// Closed before the server shuts down so the parked handler always
	// returns and Close never waits on an active connection.
	stop := make(chan struct{})
	defer close(stop)
	r := chi.NewRouter()
	r.Get("/suppliers", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-stop:
		}
	})
	c := newTestClient(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := c.ListSuppliers(ctx, ListParams{})
	require.Error(t, err)
	_, ok := AsError(err)
	require.False(t, ok)
}
