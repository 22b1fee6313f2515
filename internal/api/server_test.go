package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, Stores) {
	t.Helper()
	stores := Stores{
		Tokens:    memory.NewTokenStore(),
		Events:    memory.NewBondingEventStore(),
		Positions: memory.NewPositionStore(),
		Activity:  memory.NewActivityStore(),
		Daily:     memory.NewDailyStatsStore(),
		Global:    memory.NewGlobalStatsStore(),
		Snapshots: memory.NewSnapshotStore(),
		Sessions:  memory.NewSessionStore(),
	}
	return NewServer(stores, nil), stores
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func seedToken(t *testing.T, stores Stores) *domain.TokenAggregate {
	t.Helper()
	tok := &domain.TokenAggregate{
		Address:            "0x1000000000000000000000000000000000000001",
		TokenID:            7,
		Symbol:             "TEST",
		Supply:             1e10,
		MigrationThreshold: 503.15,
		BondingProgress:    42,
		Status:             domain.StatusBonding,
		CreatedAt:          1704067200,
	}
	if err := stores.Tokens.Create(context.Background(), tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return tok
}

func TestGetTokenByAddressAndID(t *testing.T) {
	s, stores := newTestServer(t)
	tok := seedToken(t, stores)

	rec := get(t, s, "/api/tokens/"+tok.Address)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.TokenAggregate
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Symbol != "TEST" || got.TokenID != 7 {
		t.Fatalf("got %q/%d, want TEST/7", got.Symbol, got.TokenID)
	}

	rec = get(t, s, "/api/token-ids/7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status by id = %d, want 200", rec.Code)
	}

	rec = get(t, s, "/api/tokens/0xdead000000000000000000000000000000000000")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing token status = %d, want 404", rec.Code)
	}
	rec = get(t, s, "/api/token-ids/notanumber")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestListTokensByStatus(t *testing.T) {
	s, stores := newTestServer(t)
	seedToken(t, stores)

	rec := get(t, s, "/api/tokens?status=bonding")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var tokens []*domain.TokenAggregate
	if err := json.NewDecoder(rec.Body).Decode(&tokens); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1", len(tokens))
	}

	rec = get(t, s, "/api/tokens?status=nonsense")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status = %d, want 400", rec.Code)
	}
}

func TestTokenTrades(t *testing.T) {
	s, stores := newTestServer(t)
	tok := seedToken(t, stores)

	be := &domain.BondingEvent{
		ID: domain.EventID("0xb1", 0), TxHash: "0xb1",
		TokenAddress: tok.Address, User: "0xu",
		AvaxAmount: 10, TokenAmount: 1000, Price: 0.01,
		TradeType: domain.TradeTypeBuy, BlockNumber: 100, Timestamp: 1704067200,
	}
	if err := stores.Events.Insert(context.Background(), be); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	rec := get(t, s, "/api/tokens/"+tok.Address+"/trades")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var events []*domain.BondingEvent
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].ID != be.ID {
		t.Fatalf("got %d events, want the seeded one", len(events))
	}

	rec = get(t, s, "/api/tokens/"+tok.Address+"/trades?start=1704067201")
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode ranged: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("ranged query got %d events, want 0", len(events))
	}
}

func TestUserEndpoints(t *testing.T) {
	s, stores := newTestServer(t)
	ctx := context.Background()

	act := &domain.UserActivity{User: "0xu", TotalTrades: 3, RealizedPnL: 1.5}
	if err := stores.Activity.Save(ctx, act); err != nil {
		t.Fatalf("seed activity: %v", err)
	}

	rec := get(t, s, "/api/users/0xu/activity")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.UserActivity
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalTrades != 3 {
		t.Fatalf("trades = %d, want 3", got.TotalTrades)
	}

	rec = get(t, s, "/api/users/0xnobody/activity")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing activity status = %d, want 404", rec.Code)
	}
}

func TestGlobalStatsEmptyIsOK(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/stats/global")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats domain.GlobalStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalTokens != 0 {
		t.Fatalf("total tokens = %d, want 0", stats.TotalTokens)
	}
}

func TestDailyStatsRequiresRange(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/stats/daily")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = get(t, s, "/api/stats/daily?from=2024-01-01&to=2024-01-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
