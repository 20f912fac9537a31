package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-bot/internal/signal"
)

func testSignal(symbol string, kind signal.Kind, createdAt time.Time) signal.Combined {
	return signal.Combined{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Kind:       kind,
		Confidence: 0.75,
		Technical:  signal.Signal{Symbol: symbol, Kind: kind, Confidence: 0.7, Reason: "bullish_crossover"},
		ML:         &signal.Prediction{Kind: kind, Confidence: 0.8, Probabilities: []float64{0.1, 0.1, 0.8}},
		Price:      101.5,
		Indicators: map[string]float64{"rsi": 28.4},
		CreatedAt:  createdAt,
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreLogAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.LogSignal(ctx, testSignal("BTCUSDT", signal.Buy, base)))
	require.NoError(t, store.LogSignal(ctx, testSignal("BTCUSDT", signal.Sell, base.Add(time.Minute))))
	require.NoError(t, store.LogSignal(ctx, testSignal("ETHUSDT", signal.Hold, base)))

	signals, err := store.Signals(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	// Newest first.
	assert.Equal(t, signal.Sell, signals[0].Kind)
	assert.Equal(t, signal.Buy, signals[1].Kind)
	assert.True(t, signals[0].CreatedAt.After(signals[1].CreatedAt))

	// Nested payloads survive the round trip.
	assert.Equal(t, "bullish_crossover", signals[0].Technical.Reason)
	require.NotNil(t, signals[0].ML)
	assert.Equal(t, []float64{0.1, 0.1, 0.8}, signals[0].ML.Probabilities)
	assert.Equal(t, 28.4, signals[0].Indicators["rsi"])
}

func TestStoreLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.LogSignal(ctx, testSignal("BTCUSDT", signal.Buy, base.Add(time.Duration(i)*time.Minute))))
	}

	signals, err := store.Signals(ctx, "BTCUSDT", 3)
	require.NoError(t, err)
	assert.Len(t, signals, 3)
}

func TestStoreNilOptionalFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := testSignal("BTCUSDT", signal.Hold, time.Now().UTC())
	c.ML = nil
	c.Indicators = nil
	require.NoError(t, store.LogSignal(ctx, c))

	signals, err := store.Signals(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Nil(t, signals[0].ML)
	assert.Nil(t, signals[0].Indicators)
}

func TestStoreUnknownSymbol(t *testing.T) {
	store := openTestStore(t)
	signals, err := store.Signals(context.Background(), "NOPE", 10)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestRebind(t *testing.T) {
	sqlite := &Store{postgres: false}
	postgres := &Store{postgres: true}

	query := "INSERT INTO signals (id, symbol) VALUES (?,?)"
	assert.Equal(t, query, sqlite.rebind(query))
	assert.Equal(t, "INSERT INTO signals (id, symbol) VALUES ($1,$2)", postgres.rebind(query))
}

func TestMemoryJournal(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, m.LogSignal(ctx, testSignal("BTCUSDT", signal.Buy, base)))
	require.NoError(t, m.LogSignal(ctx, testSignal("BTCUSDT", signal.Sell, base.Add(time.Minute))))

	signals, err := m.Signals(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, signal.Sell, signals[0].Kind)

	signals, err = m.Signals(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}
