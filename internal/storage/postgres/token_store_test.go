package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

func testToken(address string, tokenID uint64) *domain.TokenAggregate {
	return &domain.TokenAggregate{
		Address:            address,
		TokenID:            tokenID,
		Creator:            "0xcccccccccccccccccccccccccccccccccccccccc",
		Name:               "Test Token",
		Symbol:             "TEST",
		Decimals:           18,
		Supply:             1e10,
		MigrationThreshold: 503.15,
		Status:             domain.StatusBonding,
		CreatedAt:          1704067200,
		UpdatedAt:          1704067200,
	}
}

func TestTokenStore_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	tok := testToken("0x1000000000000000000000000000000000000001", 1)
	require.NoError(t, store.Create(ctx, tok))

	got, err := store.Get(ctx, tok.Address)
	require.NoError(t, err)
	require.Equal(t, tok.Address, got.Address)
	require.Equal(t, uint64(1), got.TokenID)
	require.Equal(t, "TEST", got.Symbol)
	require.Equal(t, domain.StatusBonding, got.Status)
	require.Equal(t, 503.15, got.MigrationThreshold)

	byID, err := store.GetByTokenID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, tok.Address, byID.Address)

	_, err = store.Get(ctx, "0xdead000000000000000000000000000000000000")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetByTokenID(ctx, 99)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_DuplicateCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testToken("0x1000000000000000000000000000000000000001", 1)))

	err := store.Create(ctx, testToken("0x1000000000000000000000000000000000000001", 2))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same token id under a different address collides on the unique index.
	err = store.Create(ctx, testToken("0x1000000000000000000000000000000000000002", 1))
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTokenStore_SaveUpserts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	tok := testToken("0x1000000000000000000000000000000000000001", 1)
	require.NoError(t, store.Create(ctx, tok))

	tok.AvaxRaised = 120.5
	tok.BondingProgress = 23.9
	tok.Status = domain.StatusCloseToMigration
	tok.TradeCount = 7
	require.NoError(t, store.Save(ctx, tok))

	got, err := store.Get(ctx, tok.Address)
	require.NoError(t, err)
	require.Equal(t, 120.5, got.AvaxRaised)
	require.Equal(t, domain.StatusCloseToMigration, got.Status)
	require.Equal(t, int64(7), got.TradeCount)
}

func TestTokenStore_ListByStatusOrdersByProgress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	a := testToken("0x1000000000000000000000000000000000000001", 1)
	a.BondingProgress = 40
	b := testToken("0x1000000000000000000000000000000000000002", 2)
	b.BondingProgress = 75
	c := testToken("0x1000000000000000000000000000000000000003", 3)
	c.BondingProgress = 90
	c.Status = domain.StatusCloseToMigration

	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))
	require.NoError(t, store.Create(ctx, c))

	bonding, err := store.ListByStatus(ctx, domain.StatusBonding, 0)
	require.NoError(t, err)
	require.Len(t, bonding, 2)
	require.Equal(t, b.Address, bonding[0].Address)
	require.Equal(t, a.Address, bonding[1].Address)

	limited, err := store.ListByStatus(ctx, domain.StatusBonding, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, b.Address, limited[0].Address)
}

func TestTokenStore_ListByVolume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	a := testToken("0x1000000000000000000000000000000000000001", 1)
	a.TotalVolume = 10
	b := testToken("0x1000000000000000000000000000000000000002", 2)
	b.TotalVolume = 250

	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	tokens, err := store.ListByVolume(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	require.Equal(t, b.Address, tokens[0].Address)
}
