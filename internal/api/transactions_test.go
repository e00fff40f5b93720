package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestCreateDraftSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotBody DraftRequest
	r := chi.NewRouter()
	r.Post("/transactions/purchase/drafts", func(w http.ResponseWriter, req *http.Request) {
		gotKey = req.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 42, "number": "PUR-0042", "kind": "purchase", "status": "DRAFT", "total_amount": 1150,
		})
	})
	c := newTestClient(t, r)

	created, err := c.CreateDraft(context.Background(), KindPurchase, DraftRequest{
		PartyID:     12,
		DeliveryFee: 100,
		Lines: []DraftLineRequest{
			{ProductID: 1, VariantID: 11, Quantity: 5, UnitAmount: 200},
			{ProductID: 2, VariantID: 22, Quantity: 1, UnitAmount: 50},
		},
	}, "attempt-key-1")
	require.NoError(t, err)
	require.Equal(t, "attempt-key-1", gotKey)
	require.Equal(t, int64(42), created.ID)
	require.Equal(t, int64(1150), created.TotalAmount)
	require.Len(t, gotBody.Lines, 2)
	require.Equal(t, int64(12), gotBody.PartyID)
}

func TestCreateDraftRejectsResponseWithoutID(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/transactions/sale/drafts", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"number": "SAL-1"})
	})
	c := newTestClient(t, r)

	_, err := c.CreateDraft(context.Background(), KindSale, DraftRequest{}, "k")
	require.ErrorIs(t, err, ErrNoDraftID)
}

func TestAutoAllocationOmitsAllocationsField(t *testing.T) {
	var raw map[string]json.RawMessage
	r := chi.NewRouter()
	r.Post("/transactions/customer-payment/drafts", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&raw))
		writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "status": "DRAFT"})
	})
	c := newTestClient(t, r)

	_, err := c.CreateDraft(context.Background(), KindCustomerPayment, DraftRequest{
		PartyID: 3,
		Amount:  500,
	}, "k")
	require.NoError(t, err)
	_, present := raw["allocations"]
	require.False(t, present)
}

func TestPostTransaction(t *testing.T) {
	var gotKey string
	var gotBody PostRequest
	r := chi.NewRouter()
	r.Post("/transactions/{id}/post", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "42", chi.URLParam(req, "id"))
		gotKey = req.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, map[string]any{"id": 42, "status": "POSTED"})
	})
	c := newTestClient(t, r)

	posted, err := c.PostTransaction(context.Background(), 42, PostRequest{
		Payment:     &PaymentInstruction{AccountID: 3, Amount: 1150},
		Allocations: []AllocationRequest{{TargetTransactionID: 7, Amount: 100}},
	}, "attempt-key-2")
	require.NoError(t, err)
	require.Equal(t, "attempt-key-2", gotKey)
	require.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, gotBody.Payment)
	require.Equal(t, int64(1150), gotBody.Payment.Amount)
	require.Len(t, gotBody.Allocations, 1)
}

func TestDeleteTransaction(t *testing.T) {
	var gotKey string
	r := chi.NewRouter()
	r.Delete("/transactions/{id}", func(w http.ResponseWriter, req *http.Request) {
		gotKey = req.Header.Get("Idempotency-Key")
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, r)

	require.NoError(t, c.DeleteTransaction(context.Background(), 42, "attempt-key-3"))
	require.Equal(t, "attempt-key-3", gotKey)
}

func TestPatchTransactionDraftOnly(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/transactions/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"statusCode": 409, "message": "only drafts can be edited",
		})
	})
	c := newTestClient(t, r)

	notes := "n"
	_, err := c.PatchTransaction(context.Background(), 42, PatchRequest{Notes: &notes}, "k")
	apiErr, ok := AsError(err)
	require.True(t, ok)
	require.True(t, apiErr.IsConflict())
}
