package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DraftLineRequest is one outbound line of a create-draft payload.
type DraftLineRequest struct {
	ProductID      int64          `json:"product_id"`
	VariantID      int64          `json:"variant_id"`
	Quantity       int64          `json:"quantity"`
	UnitAmount     int64          `json:"unit_amount"`
	DiscountAmount int64          `json:"discount_amount"`
	Direction      StockDirection `json:"direction,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// AllocationRequest applies part of a payment or credit to one open document.
type AllocationRequest struct {
	TargetTransactionID int64 `json:"target_transaction_id"`
	Amount              int64 `json:"amount"`
}

// DraftRequest is the outbound payload for every createXDraft endpoint.
// It is assembled once at submission time and never mutated afterwards.
type DraftRequest struct {
	PartyID         int64              `json:"party_id,omitempty"`
	Date            time.Time          `json:"date"`
	DeliveryType    DeliveryType       `json:"delivery_type,omitempty"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	DeliveryFee     int64              `json:"delivery_fee,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Amount          int64              `json:"amount,omitempty"`
	FromAccountID   int64              `json:"from_account_id,omitempty"`
	ToAccountID     int64              `json:"to_account_id,omitempty"`
	SourceID        int64              `json:"source_transaction_id,omitempty"`
	Lines           []DraftLineRequest `json:"lines,omitempty"`
	// Omitted entirely when auto-allocation is on; the backend then applies
	// its own policy (oldest document first).
	Allocations []AllocationRequest `json:"allocations,omitempty"`
}

// PaymentInstruction is an immediate payment or refund carried on post.
type PaymentInstruction struct {
	AccountID int64 `json:"account_id"`
	Amount    int64 `json:"amount"`
}

// PostRequest confirms a draft, optionally with an immediate payment and the
// allocations to apply alongside it.
type PostRequest struct {
	Payment     *PaymentInstruction `json:"payment,omitempty"`
	Allocations []AllocationRequest `json:"allocations,omitempty"`
}

// PatchRequest carries draft-only edits. Nil fields are left untouched.
type PatchRequest struct {
	Date        *time.Time          `json:"date,omitempty"`
	DeliveryFee *int64              `json:"delivery_fee,omitempty"`
	Notes       *string             `json:"notes,omitempty"`
	Lines       *[]DraftLineRequest `json:"lines,omitempty"`
}

// CreateDraft creates an immutable draft of the given kind. The idempotency
// key must be freshly generated per logical attempt.
func (c *Client) CreateDraft(ctx context.Context, kind TransactionKind, req DraftRequest, idemKey string) (*Transaction, error) {
	var t Transaction
	path := fmt.Sprintf("/transactions/%s/drafts", kind)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &t, idemKey); err != nil {
		return nil, err
	}
	if t.ID == 0 {
		return nil, ErrNoDraftID
	}
	return &t, nil
}

// PatchTransaction applies draft-only edits.
func (c *Client) PatchTransaction(ctx context.Context, id int64, req PatchRequest, idemKey string) (*Transaction, error) {
	var t Transaction
	path := fmt.Sprintf("/transactions/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, req, &t, idemKey); err != nil {
		return nil, err
	}
	return &t, nil
}

// PostTransaction finalises a draft, making it effective against balances and
// stock. The backend recomputes totals; callers display what comes back.
func (c *Client) PostTransaction(ctx context.Context, id int64, req PostRequest, idemKey string) (*Transaction, error) {
	var t Transaction
	path := fmt.Sprintf("/transactions/%d/post", id)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &t, idemKey); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTransaction discards a draft. Posted transactions cannot be deleted.
func (c *Client) DeleteTransaction(ctx context.Context, id int64, idemKey string) error {
	path := fmt.Sprintf("/transactions/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, idemKey)
}
