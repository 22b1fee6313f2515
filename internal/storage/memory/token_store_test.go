package memory

import (
	"context"
	"errors"
	"testing"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

func TestTokenStore_CreateAndGet(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.TokenAggregate{
		Address:            "0xaaa",
		TokenID:            42,
		Creator:            "0xcreator",
		Supply:             1e10,
		MigrationThreshold: 503.15,
		Status:             domain.StatusBonding,
		CreatedAt:          1704067200,
	}

	if err := store.Create(ctx, tok); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TokenID != 42 {
		t.Errorf("TokenID mismatch: got %d, want 42", got.TokenID)
	}
	if got.Status != domain.StatusBonding {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
}

func TestTokenStore_GetByTokenID(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.Create(ctx, &domain.TokenAggregate{Address: "0xaaa", TokenID: 7}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByTokenID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByTokenID failed: %v", err)
	}
	if got.Address != "0xaaa" {
		t.Errorf("Address mismatch: got %s, want 0xaaa", got.Address)
	}

	if _, err := store.GetByTokenID(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestTokenStore_CreateDuplicate(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.TokenAggregate{Address: "0xaaa", TokenID: 1}
	if err := store.Create(ctx, tok); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, tok); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestTokenStore_SaveUpserts(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.TokenAggregate{Address: "0xaaa", TokenID: 1, AvaxRaised: 10}
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save (insert) failed: %v", err)
	}

	tok.AvaxRaised = 20
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AvaxRaised != 20 {
		t.Errorf("AvaxRaised mismatch: got %v, want 20", got.AvaxRaised)
	}
}

func TestTokenStore_SaveReturnsCopy(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.TokenAggregate{Address: "0xaaa", TokenID: 1, AvaxRaised: 10}
	if err := store.Save(ctx, tok); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	tok.AvaxRaised = 999

	got, _ := store.Get(ctx, "0xaaa")
	if got.AvaxRaised != 10 {
		t.Errorf("store leaked caller mutation: got %v, want 10", got.AvaxRaised)
	}
}

func TestTokenStore_ListByStatus(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tokens := []*domain.TokenAggregate{
		{Address: "0xa", TokenID: 1, Status: domain.StatusBonding, BondingProgress: 10},
		{Address: "0xb", TokenID: 2, Status: domain.StatusCloseToMigration, BondingProgress: 85},
		{Address: "0xc", TokenID: 3, Status: domain.StatusCloseToMigration, BondingProgress: 95},
		{Address: "0xd", TokenID: 4, Status: domain.StatusMigrated, BondingProgress: 100},
	}
	for _, tok := range tokens {
		if err := store.Create(ctx, tok); err != nil {
			t.Fatalf("Create %s failed: %v", tok.Address, err)
		}
	}

	got, err := store.ListByStatus(ctx, domain.StatusCloseToMigration, 0)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(got))
	}
	// Ordered by progress descending
	if got[0].Address != "0xc" || got[1].Address != "0xb" {
		t.Errorf("wrong order: got %s, %s", got[0].Address, got[1].Address)
	}
}
