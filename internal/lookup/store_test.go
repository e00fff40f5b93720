package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/transflow/transflow/internal/api"
)

func TestMemoryStoreMissIsNilNil(t *testing.T) {
	s := NewMemoryStore()
	snap, err := s.GetBalance(context.Background(), api.PartySupplier, 1)
	require.NoError(t, err)
	require.Nil(t, snap)

	stock, err := s.GetStock(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, stock)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	in := PartyBalanceSnapshot{PartyID: 7, Kind: api.PartyCustomer, CurrentBalance: 900, TakenAt: time.Now()}
	require.NoError(t, s.PutBalance(context.Background(), in))

	out, err := s.GetBalance(context.Background(), api.PartyCustomer, 7)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, in.CurrentBalance, out.CurrentBalance)

	// Supplier and customer namespaces do not collide.
	other, err := s.GetBalance(context.Background(), api.PartySupplier, 7)
	require.NoError(t, err)
	require.Nil(t, other)
}

func newRedisStore(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreBalanceRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	in := PartyBalanceSnapshot{PartyID: 7, Kind: api.PartySupplier, CurrentBalance: 4200, TakenAt: time.Now().UTC()}
	require.NoError(t, s.PutBalance(context.Background(), in))

	out, err := s.GetBalance(context.Background(), api.PartySupplier, 7)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, in.PartyID, out.PartyID)
	require.Equal(t, in.CurrentBalance, out.CurrentBalance)
}

func TestRedisStoreStockRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	in := StockSnapshot{
		ProductID: 5,
		Variants: []VariantStock{
			{VariantID: 11, Size: "M", CurrentStock: 14, Active: true},
		},
		TakenAt: time.Now().UTC(),
	}
	require.NoError(t, s.PutStock(context.Background(), in))

	out, err := s.GetStock(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.Variants, 1)
	require.Equal(t, int64(14), out.Variants[0].CurrentStock)
}

func TestRedisStoreMiss(t *testing.T) {
	s, _ := newRedisStore(t, time.Minute)
	out, err := s.GetBalance(context.Background(), api.PartySupplier, 404)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestRedisStoreEntriesAgeOut(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	in := PartyBalanceSnapshot{PartyID: 7, Kind: api.PartySupplier, CurrentBalance: 4200}
	require.NoError(t, s.PutBalance(context.Background(), in))

	mr.FastForward(2 * time.Minute)

	out, err := s.GetBalance(context.Background(), api.PartySupplier, 7)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestCacheWithRedisStore(t *testing.T) {
	backend := newStubBackend()
	store, _ := newRedisStore(t, time.Minute)
	c := NewCache(backend, store, nil)

	snap, err := c.PartyBalance(context.Background(), api.PartySupplier, 7)
	require.NoError(t, err)
	require.Equal(t, int64(4200), snap.CurrentBalance)

	// A second cache over the same store shares the snapshot.
	c2 := NewCache(backend, store, nil)
	snap, err = c2.PartyBalance(context.Background(), api.PartySupplier, 7)
	require.NoError(t, err)
	require.Equal(t, int64(4200), snap.CurrentBalance)
	require.Equal(t, int64(1), backend.supplierCalls.Load())
}
