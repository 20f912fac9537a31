package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/signal-bot/internal/signal"
)

type recordingNotifier struct {
	name string
	err  error

	mu   sync.Mutex
	sent []signal.Combined
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) SendSignal(_ context.Context, c signal.Combined) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, c)
	return r.err
}

func sampleSignal() signal.Combined {
	return signal.Combined{
		ID:         "abc-123",
		Symbol:     "BTCUSDT",
		Kind:       signal.Buy,
		Confidence: 0.78,
		Technical:  signal.Signal{Kind: signal.Buy, Confidence: 0.7, Reason: "bullish_crossover"},
		ML:         &signal.Prediction{Kind: signal.Buy, Confidence: 0.8},
		Price:      45123.5,
		Indicators: map[string]float64{"rsi": 28.4, "macd": 1.2},
		CreatedAt:  time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(sampleSignal())

	assert.Contains(t, msg, "BUY BTCUSDT")
	assert.Contains(t, msg, "Confidence: 78%")
	assert.Contains(t, msg, "Price: 45123.5000")
	assert.Contains(t, msg, "bullish_crossover")
	assert.Contains(t, msg, "Model: BUY (80%)")
	assert.Contains(t, msg, "macd=1.20 rsi=28.40")
	assert.Contains(t, msg, "2024-01-02 10:00:00")
}

func TestFormatSignalWithoutPrediction(t *testing.T) {
	c := sampleSignal()
	c.ML = nil
	c.Indicators = nil

	msg := FormatSignal(c)
	assert.NotContains(t, msg, "Model:")
	assert.NotContains(t, msg, "Indicators:")
}

func TestMultiFanOut(t *testing.T) {
	first := &recordingNotifier{name: "first"}
	second := &recordingNotifier{name: "second"}

	multi := NewMulti(first, second)
	require.NoError(t, multi.SendSignal(context.Background(), sampleSignal()))

	assert.Len(t, first.sent, 1)
	assert.Len(t, second.sent, 1)
	assert.Equal(t, "abc-123", first.sent[0].ID)
}

func TestMultiFailureDoesNotPropagate(t *testing.T) {
	failing := &recordingNotifier{name: "failing", err: errors.New("channel down")}
	healthy := &recordingNotifier{name: "healthy"}

	multi := NewMulti(failing, healthy)
	assert.NoError(t, multi.SendSignal(context.Background(), sampleSignal()))
	assert.Len(t, healthy.sent, 1)
}

func TestMultiWithNoTargets(t *testing.T) {
	assert.NoError(t, NewMulti().SendSignal(context.Background(), sampleSignal()))
}
