package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bridge/internal/models"
)

func testSignal(symbol, decisionID string) *models.TradingSignal {
	return &models.TradingSignal{
		Version:    models.SchemaVersion,
		DecisionID: decisionID,
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Symbol:     models.NormalizeSymbol(symbol),
		Side:       models.SideLong,
		Confidence: 0.6,
		Entry:      models.EntrySpec{Type: models.EntryMarket},
		Risk: models.RiskPlan{
			InitialStop: 95,
			TakeProfits: []models.TakeProfit{
				{Price: 107, SizePct: 0.5},
				{Price: 113, SizePct: 0.5},
			},
			MaxCapitalPct: 0.05,
		},
		Rationale: "Breakout above 20-bar high",
	}
}

func TestMemoryStore_PublishFetch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Publish(ctx, testSignal("BTC/USDT", "d-1")))

	got, err := store.FetchLatest(ctx, "btc/usdt", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "d-1", got.DecisionID)
	assert.Equal(t, "BTC/USDT", got.Symbol)
}

func TestMemoryStore_RepublishIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sig := testSignal("BTC/USDT", "d-1")

	require.NoError(t, store.Publish(ctx, sig))
	require.NoError(t, store.Publish(ctx, sig))

	first, err := store.FetchLatest(ctx, "BTC/USDT", time.Minute)
	require.NoError(t, err)
	second, err := store.FetchLatest(ctx, "BTC/USDT", time.Minute)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.DecisionID, second.DecisionID)
	assert.Equal(t, first, second)
}

func TestMemoryStore_NewerSignalWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Publish(ctx, testSignal("BTC/USDT", "d-1")))
	require.NoError(t, store.Publish(ctx, testSignal("BTC/USDT", "d-2")))

	got, err := store.FetchLatest(ctx, "BTC/USDT", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "d-2", got.DecisionID)
}

func TestMemoryStore_Staleness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	require.NoError(t, store.Publish(ctx, testSignal("BTC/USDT", "d-1")))

	// max_age=0 with any elapsed time means nothing is fresh
	store.clock = func() time.Time { return now.Add(time.Millisecond) }
	got, err := store.FetchLatest(ctx, "BTC/USDT", 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	// the stale entry is gated, not deleted
	store.clock = func() time.Time { return now }
	got, err = store.FetchLatest(ctx, "BTC/USDT", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryStore_MissingSymbol(t *testing.T) {
	got, err := NewMemoryStore().FetchLatest(context.Background(), "NOPE/USDT", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_CorruptPayload(t *testing.T) {
	store := NewMemoryStore()
	store.mu.Lock()
	store.slots["BTC/USDT"] = []byte("{not json")
	store.mu.Unlock()

	got, err := store.FetchLatest(context.Background(), "BTC/USDT", time.Minute)
	assert.Nil(t, got)
	require.ErrorIs(t, err, ErrDecode, "corruption is observable, not a crash")
}

func TestMemoryStore_RejectsInvalidSignal(t *testing.T) {
	sig := testSignal("BTC/USDT", "d-1")
	sig.Confidence = 1.5
	err := NewMemoryStore().Publish(context.Background(), sig)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestMemoryStore_ConcurrentPerSymbol(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		id := fmt.Sprintf("d-%d", i)
		go func() {
			defer wg.Done()
			_ = store.Publish(ctx, testSignal("BTC/USDT", id))
		}()
		go func() {
			defer wg.Done()
			// fetch must always observe a complete value or nothing
			got, err := store.FetchLatest(ctx, "BTC/USDT", time.Minute)
			require.NoError(t, err)
			if got != nil {
				require.NoError(t, got.Validate())
			}
		}()
	}
	wg.Wait()
}
