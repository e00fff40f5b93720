package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transflow/transflow/internal/api"
)

// PartyBalanceSnapshot is a point-in-time read of a party's balance. It goes
// stale the moment a transaction involving the party posts and is never
// refreshed automatically; callers treat it as informational only.
type PartyBalanceSnapshot struct {
	PartyID        int64         `json:"party_id"`
	Kind           api.PartyKind `json:"kind"`
	CurrentBalance int64         `json:"current_balance"`
	TakenAt        time.Time     `json:"taken_at"`
}

// VariantStock is one variant's stock level inside a StockSnapshot.
type VariantStock struct {
	VariantID    int64  `json:"variant_id"`
	Size         string `json:"size"`
	CurrentStock int64  `json:"current_stock"`
	Active       bool   `json:"active"`
}

// StockSnapshot is a per-product read of stock by variant. Used only for
// soft warnings; the backend stays authoritative on stock sufficiency.
type StockSnapshot struct {
	ProductID int64          `json:"product_id"`
	Variants  []VariantStock `json:"variants"`
	TakenAt   time.Time      `json:"taken_at"`
}

// Store persists lookup snapshots. A nil result with a nil error is a miss.
type Store interface {
	GetBalance(ctx context.Context, kind api.PartyKind, id int64) (*PartyBalanceSnapshot, error)
	PutBalance(ctx context.Context, snap PartyBalanceSnapshot) error
	GetStock(ctx context.Context, productID int64) (*StockSnapshot, error)
	PutStock(ctx context.Context, snap StockSnapshot) error
}

// memoryStore is the default per-session store.
type memoryStore struct {
	mu       sync.RWMutex
	balances map[string]PartyBalanceSnapshot
	stock    map[int64]StockSnapshot
}

// NewMemoryStore returns an in-process Store scoped to this session.
func NewMemoryStore() Store {
	return &memoryStore{
		balances: make(map[string]PartyBalanceSnapshot),
		stock:    make(map[int64]StockSnapshot),
	}
}

func balanceKey(kind api.PartyKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func (s *memoryStore) GetBalance(_ context.Context, kind api.PartyKind, id int64) (*PartyBalanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.balances[balanceKey(kind, id)]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *memoryStore) PutBalance(_ context.Context, snap PartyBalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey(snap.Kind, snap.PartyID)] = snap
	return nil
}

func (s *memoryStore) GetStock(_ context.Context, productID int64) (*StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.stock[productID]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *memoryStore) PutStock(_ context.Context, snap StockSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[snap.ProductID] = snap
	return nil
}

// redisStore shares snapshots across CLI invocations through Redis. Entries
// carry a TTL so stale reads age out on their own.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed Store. A zero ttl keeps entries for
// the Redis default (no expiry).
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) redisBalanceKey(kind api.PartyKind, id int64) string {
	return fmt.Sprintf("transflow:lookup:balance:%s:%d", kind, id)
}

func (s *redisStore) redisStockKey(productID int64) string {
	return fmt.Sprintf("transflow:lookup:stock:%d", productID)
}

func (s *redisStore) GetBalance(ctx context.Context, kind api.PartyKind, id int64) (*PartyBalanceSnapshot, error) {
	raw, err := s.client.Get(ctx, s.redisBalanceKey(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup: redis get balance: %w", err)
	}
	var snap PartyBalanceSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("lookup: decode balance snapshot: %w", err)
	}
	return &snap, nil
}

func (s *redisStore) PutBalance(ctx context.Context, snap PartyBalanceSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("lookup: encode balance snapshot: %w", err)
	}
	return s.client.Set(ctx, s.redisBalanceKey(snap.Kind, snap.PartyID), raw, s.ttl).Err()
}

func (s *redisStore) GetStock(ctx context.Context, productID int64) (*StockSnapshot, error) {
	raw, err := s.client.Get(ctx, s.redisStockKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup: redis get stock: %w", err)
	}
	var snap StockSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("lookup: decode stock snapshot: %w", err)
	}
	return &snap, nil
}

func (s *redisStore) PutStock(ctx context.Context, snap StockSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("lookup: encode stock snapshot: %w", err)
	}
	return s.client.Set(ctx, s.redisStockKey(snap.ProductID), raw, s.ttl).Err()
}
