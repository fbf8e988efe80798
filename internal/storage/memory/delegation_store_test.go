package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

func TestDelegationStore_UpsertAndGet(t *testing.T) {
	store := NewDelegationStore()
	ctx := context.Background()

	d := &domain.Delegation{
		User:                "user1",
		BotAuthority:        "bot1",
		Strategy:            domain.StrategyConservative,
		MaxPositionSizeSol:  100_000_000,
		MaxConcurrentTrades: 3,
		IsActive:            true,
		CreatedAt:           time.Now(),
	}

	if err := store.Upsert(ctx, d); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.MaxPositionSizeSol != 100_000_000 {
		t.Errorf("MaxPositionSizeSol mismatch: got %d", got.MaxPositionSizeSol)
	}

	// Upsert replaces the snapshot.
	d.TotalTrades = 7
	d.TotalPnl = -42
	if err := store.Upsert(ctx, d); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	got, err = store.GetByUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.TotalTrades != 7 || got.TotalPnl != -42 {
		t.Errorf("snapshot not replaced: %+v", got)
	}
}

func TestDelegationStore_CopySemantics(t *testing.T) {
	store := NewDelegationStore()
	ctx := context.Background()

	d := &domain.Delegation{User: "user1", IsActive: true}
	if err := store.Upsert(ctx, d); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Mutating the input or the returned copy must not affect the store.
	d.IsActive = false
	got, _ := store.GetByUser(ctx, "user1")
	if !got.IsActive {
		t.Error("store aliased the inserted value")
	}
	got.IsActive = false
	again, _ := store.GetByUser(ctx, "user1")
	if !again.IsActive {
		t.Error("store aliased the returned value")
	}
}

func TestDelegationStore_NotFound(t *testing.T) {
	store := NewDelegationStore()
	if _, err := store.GetByUser(context.Background(), "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelegationStore_InvalidInput(t *testing.T) {
	store := NewDelegationStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Upsert(ctx, &domain.Delegation{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty user, got %v", err)
	}
}

func TestDelegationStore_ListOrdered(t *testing.T) {
	store := NewDelegationStore()
	ctx := context.Background()
	base := time.Now()

	for i, user := range []string{"c", "a", "b"} {
		d := &domain.Delegation{User: user, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s failed: %v", user, err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 delegations, got %d", len(list))
	}
	if list[0].User != "c" || list[1].User != "a" || list[2].User != "b" {
		t.Errorf("not ordered by CreatedAt: %s %s %s", list[0].User, list[1].User, list[2].User)
	}
}
