package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"curverider/internal/domain"
	"curverider/internal/storage"
	chstore "curverider/internal/storage/clickhouse"
	"curverider/internal/storage/migrations"
)

// setupTestDB creates a ClickHouse container, applies the embedded
// migrations and returns a connection with a cleanup function.
func setupTestDB(t *testing.T) (*chstore.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := chstore.NewConn(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, migrations.RunClickhouseMigrations(ctx, conn))

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func testRecord(positionID, user string) *storage.TradeHistoryRecord {
	return &storage.TradeHistoryRecord{
		PositionID: positionID,
		User:       user,
		TokenMint:  "Mint111111111111111111111111111111111111111",
		Strategy:   domain.StrategyUltraEarlySniper,
		AmountSol:  100_000_000,
		EntryPrice: 1000,
		ExitPrice:  2000,
		Pnl:        100_000_000,
		ExitReason: "TAKE_PROFIT",
		OpenedAtMs: 1_700_000_000_000,
		ClosedAtMs: 1_700_000_600_000,
	}
}

func TestTradeHistoryStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTradeHistoryStore(conn)
	ctx := context.Background()

	r := testRecord("pos1", "user1")
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.PositionID, got[0].PositionID)
	assert.Equal(t, r.User, got[0].User)
	assert.Equal(t, r.TokenMint, got[0].TokenMint)
	assert.Equal(t, r.Strategy, got[0].Strategy)
	assert.Equal(t, r.AmountSol, got[0].AmountSol)
	assert.Equal(t, r.EntryPrice, got[0].EntryPrice)
	assert.Equal(t, r.ExitPrice, got[0].ExitPrice)
	assert.Equal(t, r.Pnl, got[0].Pnl)
	assert.Equal(t, r.ExitReason, got[0].ExitReason)
	assert.Equal(t, r.OpenedAtMs, got[0].OpenedAtMs)
	assert.Equal(t, r.ClosedAtMs, got[0].ClosedAtMs)
}

func TestTradeHistoryStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTradeHistoryStore(conn)
	ctx := context.Background()

	r := testRecord("pos1", "user1")
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeHistoryStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTradeHistoryStore(conn)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &storage.TradeHistoryRecord{}), storage.ErrInvalidInput)
}

func TestTradeHistoryStore_GetByUserOrdered(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewTradeHistoryStore(conn)
	ctx := context.Background()

	second := testRecord("pos2", "user1")
	second.ClosedAtMs = 1_700_000_900_000
	require.NoError(t, store.Insert(ctx, second))

	first := testRecord("pos1", "user1")
	require.NoError(t, store.Insert(ctx, first))

	other := testRecord("pos3", "user2")
	require.NoError(t, store.Insert(ctx, other))

	got, err := store.GetByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pos1", got[0].PositionID)
	assert.Equal(t, "pos2", got[1].PositionID)

	none, err := store.GetByUser(ctx, "user3")
	require.NoError(t, err)
	assert.Empty(t, none)
}
