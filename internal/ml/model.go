package ml

import (
	"encoding/gob"
	"fmt"
	"os"

	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/signal"
)

// Class labels for the 3-class forest.
const (
	classSell = 0
	classHold = 1
	classBuy  = 2
	numTrees  = 100

	// Labeling looks this many bars ahead and thresholds the forward
	// return at +-2%.
	lookaheadBars   = 5
	returnThreshold = 0.02
)

// Model is a random-forest signal classifier with a feature scaler.
// An untrained model predicts HOLD at neutral confidence instead of
// failing.
type Model struct {
	forest  randomforest.Forest
	scaler  Scaler
	trained bool
	logger  zerolog.Logger
}

// New creates an untrained model.
func New() *Model {
	return &Model{
		logger: log.With().Str("component", "ml_model").Logger(),
	}
}

// Trained reports whether a successful training pass has completed.
func (m *Model) Trained() bool { return m.trained }

// Train builds a labeled dataset from historical candle series, fits
// the scaler and trains the forest. An empty dataset is an error and
// leaves the model untrained.
func (m *Model) Train(series map[string][]candle.Candle) error {
	x, labels := buildDataset(series)
	if len(x) == 0 {
		return fmt.Errorf("no training samples could be built")
	}

	m.scaler = Scaler{}
	m.scaler.Fit(x)

	m.forest = randomforest.Forest{}
	m.forest.Data = randomforest.ForestData{
		X:     m.scaler.TransformAll(x),
		Class: labels,
	}
	m.forest.Train(numTrees)
	m.trained = true

	m.logger.Info().Int("samples", len(x)).Int("trees", numTrees).Msg("model trained")
	return nil
}

// Predict classifies a snapshot. An untrained model yields HOLD at
// neutral confidence rather than an error.
func (m *Model) Predict(snap Snapshot) signal.Prediction {
	if !m.trained {
		return signal.Prediction{Kind: signal.Hold, Confidence: 0.5}
	}

	votes := m.forest.Vote(m.scaler.Transform(snap.Vector()))
	if len(votes) == 0 {
		return signal.Prediction{Kind: signal.Hold, Confidence: 0.5}
	}

	best := 0
	for i := range votes {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return signal.Prediction{
		Kind:          kindFromClass(best),
		Confidence:    votes[best],
		Probabilities: votes,
	}
}

// buildDataset slides an expanding window over each series, building a
// feature vector at every bar that leaves room for the lookahead, and
// labels it from the forward return.
func buildDataset(series map[string][]candle.Candle) ([][]float64, []int) {
	var x [][]float64
	var labels []int

	for _, candles := range series {
		if len(candles) < MinHistory*2 {
			continue
		}
		for i := MinHistory; i < len(candles)-lookaheadBars; i++ {
			snap, ok := BuildSnapshot(candles[:i+1])
			if !ok {
				continue
			}
			current := candles[i].Close
			future := candles[i+lookaheadBars].Close
			if current == 0 {
				continue
			}
			futureReturn := (future - current) / current

			label := classHold
			switch {
			case futureReturn > returnThreshold:
				label = classBuy
			case futureReturn < -returnThreshold:
				label = classSell
			}
			x = append(x, snap.Vector())
			labels = append(labels, label)
		}
	}
	return x, labels
}

func kindFromClass(class int) signal.Kind {
	switch class {
	case classBuy:
		return signal.Buy
	case classSell:
		return signal.Sell
	default:
		return signal.Hold
	}
}

// persistedModel is the gob payload for Save/Load.
type persistedModel struct {
	Forest  randomforest.Forest
	Scaler  Scaler
	Trained bool
}

// Save writes the model and scaler pair to disk.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	defer f.Close()

	payload := persistedModel{Forest: m.forest, Scaler: m.scaler, Trained: m.trained}
	if err := gob.NewEncoder(f).Encode(&payload); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return nil
}

// Load reads a model and scaler pair from disk. A missing file means
// untrained, not an error.
func Load(path string) (*Model, error) {
	m := New()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		m.logger.Warn().Str("path", path).Msg("model file absent, starting untrained")
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	var payload persistedModel
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}

	m.forest = payload.Forest
	m.scaler = payload.Scaler
	m.trained = payload.Trained
	return m, nil
}
