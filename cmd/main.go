package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/backtest"
	"github.com/amirphl/signal-bot/internal/candle"
	"github.com/amirphl/signal-bot/internal/config"
	"github.com/amirphl/signal-bot/internal/engine"
	"github.com/amirphl/signal-bot/internal/exchange"
	"github.com/amirphl/signal-bot/internal/journal"
	"github.com/amirphl/signal-bot/internal/ml"
	"github.com/amirphl/signal-bot/internal/notifier"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case "train":
		err = runTrain(ctx, cfg)
	case "backtest":
		err = runBacktest(cfg)
	default:
		err = runEngine(ctx, cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", cfg.Mode).Msg("exited with error")
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

// buildSources binds every configured symbol to its venue's fetcher.
func buildSources(cfg config.Config) []engine.Source {
	client := exchange.NewClient(exchange.ClientOptions{})

	var sources []engine.Source
	if len(cfg.Symbols.AlphaVantage) > 0 {
		fetcher := exchange.NewAlphaVantage(client, "", cfg.AlphaVantageKey)
		for _, symbol := range cfg.Symbols.AlphaVantage {
			sources = append(sources, engine.Source{Symbol: symbol, Fetcher: fetcher})
		}
	}
	if len(cfg.Symbols.Bybit) > 0 {
		fetcher := exchange.NewBybit(client, "", cfg.BybitAPIKey, cfg.BybitAPISecret)
		for _, symbol := range cfg.Symbols.Bybit {
			sources = append(sources, engine.Source{Symbol: symbol, Fetcher: fetcher})
		}
	}
	if len(cfg.Symbols.Capital) > 0 {
		fetcher := exchange.NewCapital(client, "", cfg.CapitalAPIKey)
		for _, symbol := range cfg.Symbols.Capital {
			sources = append(sources, engine.Source{Symbol: symbol, Fetcher: fetcher})
		}
	}
	return sources
}

func buildNotifier(cfg config.Config) *notifier.Multi {
	var targets []notifier.Notifier

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		telegram, err := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram disabled")
		} else {
			targets = append(targets, telegram)
		}
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		discord, err := notifier.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			log.Warn().Err(err).Msg("discord disabled")
		} else {
			targets = append(targets, discord)
		}
	}
	if len(targets) == 0 {
		log.Warn().Msg("no delivery channels configured, signals will only be journaled")
	}
	return notifier.NewMulti(targets...)
}

func openJournal(cfg config.Config) (journal.Journal, error) {
	if cfg.JournalDSN != "" {
		return journal.OpenPostgres(cfg.JournalDSN)
	}
	return journal.OpenSQLite(cfg.JournalPath)
}

func runEngine(ctx context.Context, cfg config.Config) error {
	sources := buildSources(cfg)
	if len(sources) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	model, err := ml.Load(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	store, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer store.Close()

	eng := engine.New(engine.Options{
		Sources:       sources,
		Model:         model,
		Notifier:      buildNotifier(cfg),
		Journal:       store,
		Interval:      cfg.Interval,
		FetchLimit:    cfg.FetchLimit,
		MinConfidence: cfg.MinConfidence,
	})

	log.Info().
		Int("symbols", len(sources)).
		Str("interval", cfg.Interval).
		Stringer("poll_interval", cfg.PollInterval.Duration).
		Bool("model_trained", model.Trained()).
		Msg("starting analysis loop")

	if err := eng.Run(ctx, cfg.PollInterval.Duration); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}

// runTrain fetches history for every configured symbol, trains the
// forest and writes it to the model path.
func runTrain(ctx context.Context, cfg config.Config) error {
	sources := buildSources(cfg)
	if len(sources) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	series := make(map[string][]candle.Candle, len(sources))
	for _, src := range sources {
		candles, err := src.Fetcher.Candles(ctx, src.Symbol, cfg.Interval, cfg.FetchLimit)
		if err != nil {
			log.Warn().Err(err).Str("symbol", src.Symbol).Msg("skipping symbol for training")
			continue
		}
		series[src.Symbol] = candles
	}

	model := ml.New()
	if err := model.Train(series); err != nil {
		return fmt.Errorf("training model: %w", err)
	}
	if err := model.Save(cfg.ModelPath); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	log.Info().Str("path", cfg.ModelPath).Msg("model trained and saved")
	return nil
}

func runBacktest(cfg config.Config) error {
	symbol := firstSymbol(cfg.Symbols)

	modelPath := cfg.ModelPath
	if _, err := os.Stat(modelPath); err != nil {
		log.Warn().Str("path", modelPath).Msg("model file absent, replaying technical-only")
		modelPath = ""
	}

	result, err := backtest.RunCSV(cfg.BacktestCSV, symbol, cfg.Interval, modelPath, backtest.Options{
		MinConfidence: cfg.MinConfidence,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Backtest of %s (%s)\n", cfg.BacktestCSV, symbol)
	fmt.Printf("  Initial balance: %.2f\n", result.InitialBalance)
	fmt.Printf("  Final balance:   %.2f\n", result.FinalBalance)
	fmt.Printf("  Total return:    %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("  Trades:          %d (%d wins, %d losses)\n", len(result.Trades), result.Wins, result.Losses)
	fmt.Printf("  Win rate:        %.1f%%\n", result.WinRate*100)
	fmt.Printf("  Signals seen:    %d\n", result.Signals)
	return nil
}

func firstSymbol(s config.Symbols) string {
	for _, list := range [][]string{s.Bybit, s.AlphaVantage, s.Capital} {
		if len(list) > 0 {
			return list[0]
		}
	}
	return "CSV"
}
