package memory

import (
	"context"
	"errors"
	"testing"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

func TestTradeHistoryStore_InsertAndGet(t *testing.T) {
	store := NewTradeHistoryStore()
	ctx := context.Background()

	r := &storage.TradeHistoryRecord{
		PositionID: "p1",
		User:       "user1",
		TokenMint:  "mint1",
		Strategy:   domain.StrategyMomentumScalper,
		AmountSol:  100,
		EntryPrice: 1000,
		ExitPrice:  1500,
		Pnl:        50,
		ExitReason: domain.ExitReasonTrailingStop,
		OpenedAtMs: 1000,
		ClosedAtMs: 2000,
	}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0].ExitReason != domain.ExitReasonTrailingStop || got[0].Pnl != 50 {
		t.Errorf("record mismatch: %+v", got[0])
	}
}

func TestTradeHistoryStore_AppendOnly(t *testing.T) {
	store := NewTradeHistoryStore()
	ctx := context.Background()

	r := &storage.TradeHistoryRecord{PositionID: "p1", User: "user1", ClosedAtMs: 1000}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeHistoryStore_InvalidInput(t *testing.T) {
	store := NewTradeHistoryStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &storage.TradeHistoryRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty position ID, got %v", err)
	}
}

func TestTradeHistoryStore_OrderedByClosedAt(t *testing.T) {
	store := NewTradeHistoryStore()
	ctx := context.Background()

	records := []*storage.TradeHistoryRecord{
		{PositionID: "p2", User: "user1", ClosedAtMs: 3000},
		{PositionID: "p1", User: "user1", ClosedAtMs: 1000},
		{PositionID: "p3", User: "user2", ClosedAtMs: 2000},
	}
	for _, r := range records {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.PositionID, err)
		}
	}

	got, err := store.GetByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records for user1, got %d", len(got))
	}
	if got[0].PositionID != "p1" || got[1].PositionID != "p2" {
		t.Errorf("not ordered by ClosedAtMs: %s %s", got[0].PositionID, got[1].PositionID)
	}
}
