package memory

import (
	"context"
	"errors"
	"testing"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

func TestPositionStore_SaveAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := &domain.UserPosition{
		User:         "0xuser",
		TokenAddress: "0xaaa",
		Balance:      1000,
		IsOpen:       true,
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xuser", "0xaaa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Balance != 1000 || !got.IsOpen {
		t.Errorf("position mismatch: %+v", got)
	}

	if _, err := store.Get(ctx, "0xuser", "0xbbb"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_ListByUserOpenFirst(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []*domain.UserPosition{
		{User: "0xuser", TokenAddress: "0xa", IsOpen: false, LastTradeAt: 3000},
		{User: "0xuser", TokenAddress: "0xb", IsOpen: true, LastTradeAt: 1000},
		{User: "0xuser", TokenAddress: "0xc", IsOpen: true, LastTradeAt: 2000},
		{User: "0xother", TokenAddress: "0xa", IsOpen: true, LastTradeAt: 9000},
	}
	for _, p := range positions {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := store.ListByUser(ctx, "0xuser")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(got))
	}
	// Open positions first, most recent trade first within each group.
	if got[0].TokenAddress != "0xc" || got[1].TokenAddress != "0xb" || got[2].TokenAddress != "0xa" {
		t.Errorf("wrong order: %s, %s, %s", got[0].TokenAddress, got[1].TokenAddress, got[2].TokenAddress)
	}
}

func TestSnapshotStore_GetOrCreateBucket(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	bucket := domain.HourBucket(1704070000)

	if _, err := store.Get(ctx, "0xaaa", bucket); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for fresh bucket, got %v", err)
	}

	snap := &domain.PriceSnapshot{
		TokenAddress: "0xaaa",
		HourBucket:   bucket,
		Price:        0.0000001,
		Volume:       5,
		TradeCount:   1,
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa", bucket)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TradeCount != 1 {
		t.Errorf("TradeCount mismatch: got %d", got.TradeCount)
	}

	list, err := store.ListByToken(ctx, "0xaaa", bucket-3600, bucket+3600)
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(list))
	}
}
