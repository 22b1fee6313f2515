package memory

import (
	"context"
	"errors"
	"testing"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

func TestBondingEventStore_InsertAndGet(t *testing.T) {
	store := NewBondingEventStore()
	ctx := context.Background()

	e := &domain.BondingEvent{
		TxHash:       "0xtx1",
		LogIndex:     3,
		TokenAddress: "0xaaa",
		User:         "0xuser",
		AvaxAmount:   10,
		TokenAmount:  1000,
		TradeType:    domain.TradeTypeBuy,
		BlockNumber:  100,
		Timestamp:    1704067200,
	}

	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, domain.EventID("0xtx1", 3))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AvaxAmount != 10 {
		t.Errorf("AvaxAmount mismatch: got %v", got.AvaxAmount)
	}
	if got.ID != "0xtx1:3" {
		t.Errorf("ID mismatch: got %s, want 0xtx1:3", got.ID)
	}
}

func TestBondingEventStore_DuplicateKey(t *testing.T) {
	store := NewBondingEventStore()
	ctx := context.Background()

	e := &domain.BondingEvent{TxHash: "0xtx1", LogIndex: 0, TokenAddress: "0xaaa"}
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := store.Insert(ctx, e); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same tx, different log index is a distinct event.
	e2 := &domain.BondingEvent{TxHash: "0xtx1", LogIndex: 1, TokenAddress: "0xaaa"}
	if err := store.Insert(ctx, e2); err != nil {
		t.Errorf("Insert with different log index failed: %v", err)
	}
}

func TestBondingEventStore_ListByTokenChainOrder(t *testing.T) {
	store := NewBondingEventStore()
	ctx := context.Background()

	events := []*domain.BondingEvent{
		{TxHash: "0xb", LogIndex: 0, TokenAddress: "0xaaa", BlockNumber: 200, Timestamp: 2000},
		{TxHash: "0xa", LogIndex: 1, TokenAddress: "0xaaa", BlockNumber: 100, Timestamp: 1000},
		{TxHash: "0xa", LogIndex: 0, TokenAddress: "0xaaa", BlockNumber: 100, Timestamp: 1000},
		{TxHash: "0xc", LogIndex: 0, TokenAddress: "0xother", BlockNumber: 150, Timestamp: 1500},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByToken(ctx, "0xaaa", 0)
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	wantOrder := []string{"0xa:0", "0xa:1", "0xb:0"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestBondingEventStore_ListByTimeRange(t *testing.T) {
	store := NewBondingEventStore()
	ctx := context.Background()

	for i, ts := range []int64{1000, 2000, 3000} {
		e := &domain.BondingEvent{
			TxHash: "0xtx", LogIndex: uint32(i), TokenAddress: "0xaaa",
			BlockNumber: uint64(i), Timestamp: ts,
		}
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.ListByTimeRange(ctx, "0xaaa", 1000, 2000)
	if err != nil {
		t.Fatalf("ListByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events in range, got %d", len(got))
	}
}
