// Package lookup caches reference reads (party balances, stock by variant)
// for the drafting flows. Snapshots are populated lazily on first reference
// and never invalidated automatically.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/transflow/transflow/internal/allocation"
	"github.com/transflow/transflow/internal/api"
)

// BackendPort is the slice of the API client the cache needs.
type BackendPort interface {
	GetSupplier(ctx context.Context, id int64) (*api.Supplier, error)
	GetCustomer(ctx context.Context, id int64) (*api.Customer, error)
	GetProduct(ctx context.Context, id int64) (*api.Product, error)
	ListTransactions(ctx context.Context, params api.ListParams) ([]api.Transaction, api.ListMeta, error)
}

// PartyContext is the joined reference data shown when a party is selected.
type PartyContext struct {
	Balance       PartyBalanceSnapshot
	OpenDocuments []allocation.OpenDocument
}

// Cache serves snapshot reads, collapsing concurrent misses for the same key
// into a single backend fetch.
type Cache struct {
	backend BackendPort
	store   Store
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCache constructs a Cache. A nil store falls back to the in-memory one.
func NewCache(backend BackendPort, store Store, logger *slog.Logger) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{backend: backend, store: store, logger: logger}
}

// PartyBalance returns the cached balance snapshot for a party, fetching it
// on first reference. The snapshot is not refreshed after later posts.
func (c *Cache) PartyBalance(ctx context.Context, kind api.PartyKind, id int64) (PartyBalanceSnapshot, error) {
	if snap, err := c.store.GetBalance(ctx, kind, id); err != nil {
		return PartyBalanceSnapshot{}, err
	} else if snap != nil {
		return *snap, nil
	}

	key := fmt.Sprintf("balance:%s:%d", kind, id)
	v, err := c.doOnce(ctx, key, func(ctx context.Context) (any, error) {
		snap, err := c.fetchBalance(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if err := c.store.PutBalance(ctx, snap); err != nil {
			c.logger.Warn("store balance snapshot", slog.Any("error", err))
		}
		return snap, nil
	})
	if err != nil {
		return PartyBalanceSnapshot{}, err
	}
	return v.(PartyBalanceSnapshot), nil
}

func (c *Cache) fetchBalance(ctx context.Context, kind api.PartyKind, id int64) (PartyBalanceSnapshot, error) {
	snap := PartyBalanceSnapshot{PartyID: id, Kind: kind, TakenAt: time.Now()}
	switch kind {
	case api.PartySupplier:
		s, err := c.backend.GetSupplier(ctx, id)
		if err != nil {
			return PartyBalanceSnapshot{}, err
		}
		snap.CurrentBalance = s.Balance
	case api.PartyCustomer:
		cu, err := c.backend.GetCustomer(ctx, id)
		if err != nil {
			return PartyBalanceSnapshot{}, err
		}
		snap.CurrentBalance = cu.Balance
	default:
		return PartyBalanceSnapshot{}, fmt.Errorf("lookup: unknown party kind %q", kind)
	}
	return snap, nil
}

// Stock returns the cached stock-by-variant snapshot for a product, fetching
// it on first reference.
func (c *Cache) Stock(ctx context.Context, productID int64) (StockSnapshot, error) {
	if snap, err := c.store.GetStock(ctx, productID); err != nil {
		return StockSnapshot{}, err
	} else if snap != nil {
		return *snap, nil
	}

	key := fmt.Sprintf("stock:%d", productID)
	v, err := c.doOnce(ctx, key, func(ctx context.Context) (any, error) {
		p, err := c.backend.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		snap := StockSnapshot{ProductID: productID, TakenAt: time.Now()}
		for _, variant := range p.Variants {
			snap.Variants = append(snap.Variants, VariantStock{
				VariantID:    variant.ID,
				Size:         variant.Size,
				CurrentStock: variant.CurrentStock,
				Active:       variant.Active,
			})
		}
		if err := c.store.PutStock(ctx, snap); err != nil {
			c.logger.Warn("store stock snapshot", slog.Any("error", err))
		}
		return snap, nil
	})
	if err != nil {
		return StockSnapshot{}, err
	}
	return v.(StockSnapshot), nil
}

// OpenDocuments lists the party's posted transactions with outstanding
// balance. Always fetched fresh; only snapshots are cached.
func (c *Cache) OpenDocuments(ctx context.Context, kind api.PartyKind, id int64) ([]allocation.OpenDocument, error) {
	params := api.ListParams{OpenOnly: true, SortBy: "date", SortOrder: api.SortAsc}
	switch kind {
	case api.PartySupplier:
		params.SupplierID = id
	case api.PartyCustomer:
		params.CustomerID = id
	default:
		return nil, fmt.Errorf("lookup: unknown party kind %q", kind)
	}
	txs, _, err := c.backend.ListTransactions(ctx, params)
	if err != nil {
		return nil, err
	}
	docs := make([]allocation.OpenDocument, 0, len(txs))
	for _, t := range txs {
		if t.Outstanding <= 0 {
			continue
		}
		docs = append(docs, allocation.OpenDocument{ID: t.ID, Number: t.Number, Outstanding: t.Outstanding})
	}
	return docs, nil
}

// PartyContext loads the party's balance and open documents in parallel and
// joins them before returning. Cancelling ctx discards a superseded fetch.
func (c *Cache) PartyContext(ctx context.Context, kind api.PartyKind, id int64) (*PartyContext, error) {
	var pc PartyContext
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := c.PartyBalance(ctx, kind, id)
		if err != nil {
			return err
		}
		pc.Balance = snap
		return nil
	})
	g.Go(func() error {
		docs, err := c.OpenDocuments(ctx, kind, id)
		if err != nil {
			return err
		}
		pc.OpenDocuments = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &pc, nil
}

// Variant resolves one variant through the stock snapshot cache, shaped for
// the validation gate's catalog hook.
func (c *Cache) Variant(ctx context.Context, productID, variantID int64) (api.Variant, bool) {
	snap, err := c.Stock(ctx, productID)
	if err != nil {
		return api.Variant{}, false
	}
	for _, v := range snap.Variants {
		if v.VariantID == variantID {
			return api.Variant{ID: v.VariantID, Size: v.Size, CurrentStock: v.CurrentStock, Active: v.Active}, true
		}
	}
	return api.Variant{}, false
}

// doOnce wraps singleflight with context cancellation so a caller whose
// selection changed can walk away from an in-flight fetch.
func (c *Cache) doOnce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
