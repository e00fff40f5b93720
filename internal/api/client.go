// Package api implements the typed HTTP client for the TransFlow backend.
// The backend owns all business rules; this package only shapes requests,
// decodes responses and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// idempotencyHeader carries the client-generated key on every mutating call.
const idempotencyHeader = "Idempotency-Key"

// Client talks to the TransFlow REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	logger  *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewClient constructs a Client from options.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: opts.Timeout},
		token:   opts.Token,
		logger:  logger,
	}, nil
}

// do issues one request and decodes the response into out when non-nil.
// Non-2xx responses are decoded into *Error; an undecodable failure body
// still yields an *Error with the status code and the default message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any, idemKey string) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idemKey != "" {
		req.Header.Set(idempotencyHeader, idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if len(raw) > 0 {
			// Best effort: keep the status code even when the body is junk.
			_ = json.Unmarshal(raw, apiErr)
			apiErr.StatusCode = resp.StatusCode
		}
		c.logger.Debug("api failure",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

// list fetches one page of a collection and validates the envelope.
func list[T any](ctx context.Context, c *Client, path string, params ListParams) ([]T, ListMeta, error) {
	var env listEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, params.Values(), nil, &env, ""); err != nil {
		return nil, ListMeta{}, err
	}
	if env.Meta == nil {
		return nil, ListMeta{}, fmt.Errorf("%w: %s: missing meta", ErrMalformedResponse, path)
	}
	return env.Data, *env.Meta, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, "")
}

// ListSuppliers returns one page of suppliers.
func (c *Client) ListSuppliers(ctx context.Context, params ListParams) ([]Supplier, ListMeta, error) {
	return list[Supplier](ctx, c, "/suppliers", params)
}

// GetSupplier fetches a single supplier.
func (c *Client) GetSupplier(ctx context.Context, id int64) (*Supplier, error) {
	var s Supplier
	if err := c.get(ctx, fmt.Sprintf("/suppliers/%d", id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListCustomers returns one page of customers.
func (c *Client) ListCustomers(ctx context.Context, params ListParams) ([]Customer, ListMeta, error) {
	return list[Customer](ctx, c, "/customers", params)
}

// GetCustomer fetches a single customer.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var cu Customer
	if err := c.get(ctx, fmt.Sprintf("/customers/%d", id), nil, &cu); err != nil {
		return nil, err
	}
	return &cu, nil
}

// ListProducts returns one page of products with nested variants.
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]Product, ListMeta, error) {
	return list[Product](ctx, c, "/products", params)
}

// GetProduct fetches a single product with its variants.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAccounts returns one page of payment accounts.
func (c *Client) ListAccounts(ctx context.Context, params ListParams) ([]PaymentAccount, ListMeta, error) {
	return list[PaymentAccount](ctx, c, "/accounts", params)
}

// ListTransactions returns one page of transactions.
func (c *Client) ListTransactions(ctx context.Context, params ListParams) ([]Transaction, ListMeta, error) {
	return list[Transaction](ctx, c, "/transactions", params)
}

// GetTransaction fetches a single transaction with nested collections.
func (c *Client) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	var t Transaction
	if err := c.get(ctx, fmt.Sprintf("/transactions/%d", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
