package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/journal"
	"github.com/amirphl/signal-bot/internal/ml"
	"github.com/amirphl/signal-bot/internal/pattern"
	"github.com/amirphl/signal-bot/internal/signal"
)

type fakeFetcher struct {
	candles []candle.Candle
	err     error
	calls   int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Candles(_ context.Context, _, _ string, _ int) ([]candle.Candle, error) {
	f.calls++
	return f.candles, f.err
}

// lastBarDetector fires a fixed event on the newest bar.
type lastBarDetector struct {
	direction pattern.Direction
	strength  float64
}

func (d *lastBarDetector) Name() string        { return "last_bar" }
func (d *lastBarDetector) Description() string { return "fires on the newest bar" }

func (d *lastBarDetector) Detect(candles []candle.Candle) ([]pattern.Event, error) {
	if len(candles) == 0 {
		return nil, nil
	}
	last := len(candles) - 1
	return []pattern.Event{{
		Type:      "last_bar",
		Index:     last,
		Timestamp: candles[last].Timestamp,
		Strength:  d.strength,
		Direction: d.direction,
	}}, nil
}

type fakePredictor struct {
	prediction signal.Prediction
}

func (p *fakePredictor) Trained() bool { return true }

func (p *fakePredictor) Predict(ml.Snapshot) signal.Prediction { return p.prediction }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []signal.Combined
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) SendSignal(_ context.Context, c signal.Combined) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, c)
	return nil
}

func flatSeries(n int) []candle.Candle {
	now := time.Now().Truncate(time.Minute)
	candles := make([]candle.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = candle.Candle{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 1000, Symbol: "BTCUSDT", Timeframe: "1h", Source: "fake",
		}
	}
	return candles
}

func TestEngineDeliversActionableSignal(t *testing.T) {
	sink := &recordingNotifier{}
	store := journal.NewMemory()

	eng := New(Options{
		Sources:   []Source{{Symbol: "BTCUSDT", Fetcher: &fakeFetcher{candles: flatSeries(100)}}},
		Detectors: []pattern.Detector{&lastBarDetector{direction: pattern.Bullish, strength: 0.9}},
		Model:     &fakePredictor{prediction: signal.Prediction{Kind: signal.Buy, Confidence: 0.8}},
		Notifier:  sink,
		Journal:   store,
	})

	eng.RunOnce(context.Background())

	require.Len(t, sink.sent, 1)
	sent := sink.sent[0]
	assert.Equal(t, signal.Buy, sent.Kind)
	// Agreeing sides earn the bonus: 0.9 averaged with 0.8, plus 0.1.
	assert.InDelta(t, 0.95, sent.Confidence, 1e-9)
	assert.NotEmpty(t, sent.ID)
	assert.NotEmpty(t, sent.Indicators)

	logged, err := store.Signals(context.Background(), "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, sent.ID, logged[0].ID)
}

func TestEngineSkipsShortSeries(t *testing.T) {
	sink := &recordingNotifier{}
	eng := New(Options{
		Sources:   []Source{{Symbol: "BTCUSDT", Fetcher: &fakeFetcher{candles: flatSeries(ml.MinHistory - 1)}}},
		Detectors: []pattern.Detector{&lastBarDetector{direction: pattern.Bullish, strength: 0.9}},
		Notifier:  sink,
		Journal:   journal.NewMemory(),
	})

	eng.RunOnce(context.Background())
	assert.Empty(t, sink.sent)
}

func TestEngineSkipsFetchFailure(t *testing.T) {
	failing := &fakeFetcher{err: errors.New("connection refused")}
	healthy := &fakeFetcher{candles: flatSeries(100)}
	sink := &recordingNotifier{}

	eng := New(Options{
		Sources: []Source{
			{Symbol: "DOWN", Fetcher: failing},
			{Symbol: "BTCUSDT", Fetcher: healthy},
		},
		Detectors: []pattern.Detector{&lastBarDetector{direction: pattern.Bullish, strength: 0.9}},
		Notifier:  sink,
		Journal:   journal.NewMemory(),
	})

	// A failing symbol must not poison the rest of the pass.
	eng.RunOnce(context.Background())
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "BTCUSDT", sink.sent[0].Symbol)
	assert.Equal(t, 1, healthy.calls)
}

func TestEngineFiltersNonActionable(t *testing.T) {
	sink := &recordingNotifier{}
	store := journal.NewMemory()

	eng := New(Options{
		Sources:   []Source{{Symbol: "BTCUSDT", Fetcher: &fakeFetcher{candles: flatSeries(100)}}},
		Detectors: []pattern.Detector{&lastBarDetector{direction: pattern.Bullish, strength: 0.4}},
		Notifier:  sink,
		Journal:   store,
	})

	eng.RunOnce(context.Background())
	assert.Empty(t, sink.sent)

	logged, err := store.Signals(context.Background(), "BTCUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestEngineWithoutModel(t *testing.T) {
	sink := &recordingNotifier{}
	eng := New(Options{
		Sources:   []Source{{Symbol: "BTCUSDT", Fetcher: &fakeFetcher{candles: flatSeries(100)}}},
		Detectors: []pattern.Detector{&lastBarDetector{direction: pattern.Bearish, strength: 0.8}},
		Notifier:  sink,
		Journal:   journal.NewMemory(),
	})

	eng.RunOnce(context.Background())
	require.Len(t, sink.sent, 1)
	assert.Equal(t, signal.Sell, sink.sent[0].Kind)
	assert.InDelta(t, 0.8, sink.sent[0].Confidence, 1e-9)
	assert.Nil(t, sink.sent[0].ML)
}

func TestEngineIgnoresStaleEvents(t *testing.T) {
	// An event on an older bar was already reported on a previous pass.
	staleDetector := &indexDetector{index: 10, direction: pattern.Bullish, strength: 0.9}
	sink := &recordingNotifier{}

	eng := New(Options{
		Sources:   []Source{{Symbol: "BTCUSDT", Fetcher: &fakeFetcher{candles: flatSeries(100)}}},
		Detectors: []pattern.Detector{staleDetector},
		Notifier:  sink,
		Journal:   journal.NewMemory(),
	})

	eng.RunOnce(context.Background())
	assert.Empty(t, sink.sent)
}

type indexDetector struct {
	index     int
	direction pattern.Direction
	strength  float64
}

func (d *indexDetector) Name() string        { return "index" }
func (d *indexDetector) Description() string { return "fires on a fixed bar" }

func (d *indexDetector) Detect(candles []candle.Candle) ([]pattern.Event, error) {
	if d.index >= len(candles) {
		return nil, nil
	}
	return []pattern.Event{{
		Type:      "fixed",
		Index:     d.index,
		Timestamp: candles[d.index].Timestamp,
		Strength:  d.strength,
		Direction: d.direction,
	}}, nil
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{candles: flatSeries(100)}
	eng := New(Options{
		Sources:  []Source{{Symbol: "BTCUSDT", Fetcher: fetcher}},
		Notifier: &recordingNotifier{},
		Journal:  journal.NewMemory(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, 50*time.Millisecond) }()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, fetcher.calls, 1)
}
