// Package config loads settings from defaults, an optional YAML file,
// command-line flags and the environment. Secrets are env-only and
// never appear in the YAML file or on the command line.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amirphl/signal-bot/internal/tfutils"
)

/*
YAML config example:

mode: run
interval: 1h
poll_interval: 5m
fetch_limit: 200
min_confidence: 0.6
model_path: model.gob
journal_path: signals.db
log_level: info
symbols:
  bybit: ["BTCUSDT", "ETHUSDT"]
  alphavantage: ["AAPL"]
  capital: ["GOLD"]
*/

// Duration wraps time.Duration so YAML values like "5m" decode.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Symbols assigns watched symbols to the venue that serves them.
type Symbols struct {
	AlphaVantage []string `yaml:"alphavantage"`
	Bybit        []string `yaml:"bybit"`
	Capital      []string `yaml:"capital"`
}

// Count returns the total number of watched symbols.
func (s Symbols) Count() int {
	return len(s.AlphaVantage) + len(s.Bybit) + len(s.Capital)
}

type Config struct {
	Mode          string        `yaml:"mode"` // run, backtest or train
	Interval      string        `yaml:"interval"`
	PollInterval  Duration `yaml:"poll_interval"`
	FetchLimit    int           `yaml:"fetch_limit"`
	MinConfidence float64       `yaml:"min_confidence"`
	ModelPath     string        `yaml:"model_path"`
	JournalPath   string        `yaml:"journal_path"` // sqlite file
	JournalDSN    string        `yaml:"journal_dsn"`  // postgres when set
	LogLevel      string        `yaml:"log_level"`
	BacktestCSV   string        `yaml:"backtest_csv"`
	Symbols       Symbols       `yaml:"symbols"`

	// Secrets, environment only.
	AlphaVantageKey  string `yaml:"-"`
	BybitAPIKey      string `yaml:"-"`
	BybitAPISecret   string `yaml:"-"`
	CapitalAPIKey    string `yaml:"-"`
	TelegramToken    string `yaml:"-"`
	TelegramChatID   int64  `yaml:"-"`
	DiscordToken     string `yaml:"-"`
	DiscordChannelID string `yaml:"-"`
}

func defaults() Config {
	return Config{
		Mode:          "run",
		Interval:      "1h",
		PollInterval:  Duration{5 * time.Minute},
		FetchLimit:    200,
		MinConfidence: 0.6,
		ModelPath:     "model.gob",
		JournalPath:   "signals.db",
		LogLevel:      "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// -config, then explicitly set flags, then secrets from the
// environment. args is the command line without the program name.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("signal-bot", flag.ContinueOnError)

	configFile := fs.String("config", "", "Path to YAML config file")
	mode := fs.String("mode", "run", "Mode: run, backtest or train")
	interval := fs.String("interval", "1h", "Candle timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d)")
	pollInterval := fs.Duration("poll-interval", 5*time.Minute, "Delay between analysis passes")
	fetchLimit := fs.Int("fetch-limit", 200, "Candles requested per fetch")
	minConfidence := fs.Float64("min-confidence", 0.6, "Confidence threshold for delivering a signal")
	modelPath := fs.String("model", "model.gob", "Path to the saved model")
	journalPath := fs.String("journal", "signals.db", "Path to the sqlite signal journal")
	journalDSN := fs.String("journal-dsn", "", "Postgres DSN; overrides the sqlite journal")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")
	backtestCSV := fs.String("backtest-csv", "", "Candle CSV to replay in backtest mode")
	symbols := fs.String("symbols", "", "Comma-separated venue:symbol pairs (e.g. bybit:BTCUSDT,alphavantage:AAPL)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := defaults()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Explicitly set flags win over the file.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "interval":
			cfg.Interval = *interval
		case "poll-interval":
			cfg.PollInterval = Duration{*pollInterval}
		case "fetch-limit":
			cfg.FetchLimit = *fetchLimit
		case "min-confidence":
			cfg.MinConfidence = *minConfidence
		case "model":
			cfg.ModelPath = *modelPath
		case "journal":
			cfg.JournalPath = *journalPath
		case "journal-dsn":
			cfg.JournalDSN = *journalDSN
		case "log-level":
			cfg.LogLevel = *logLevel
		case "backtest-csv":
			cfg.BacktestCSV = *backtestCSV
		case "symbols":
			if err := parseSymbols(*symbols, &cfg.Symbols); err != nil {
				flagErr = err
			}
		}
	})
	if flagErr != nil {
		return Config{}, flagErr
	}

	if err := loadSecrets(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseSymbols splits comma-separated venue:symbol pairs into the
// per-venue lists, replacing whatever the file configured.
func parseSymbols(raw string, out *Symbols) error {
	parsed := Symbols{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		venue, symbol, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("malformed symbol pair %q, want venue:symbol", pair)
		}
		switch venue {
		case "alphavantage":
			parsed.AlphaVantage = append(parsed.AlphaVantage, symbol)
		case "bybit":
			parsed.Bybit = append(parsed.Bybit, symbol)
		case "capital":
			parsed.Capital = append(parsed.Capital, symbol)
		default:
			return fmt.Errorf("unknown venue %q", venue)
		}
	}
	*out = parsed
	return nil
}

func loadSecrets(cfg *Config) error {
	cfg.AlphaVantageKey = os.Getenv("ALPHA_VANTAGE_API_KEY")
	cfg.BybitAPIKey = os.Getenv("BYBIT_API_KEY")
	cfg.BybitAPISecret = os.Getenv("BYBIT_API_SECRET")
	cfg.CapitalAPIKey = os.Getenv("CAPITAL_COM_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.DiscordToken = os.Getenv("DISCORD_BOT_TOKEN")
	cfg.DiscordChannelID = os.Getenv("DISCORD_CHANNEL_ID")

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = chatID
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch c.Mode {
	case "run", "backtest", "train":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if !tfutils.IsValidTimeframe(c.Interval) {
		return fmt.Errorf("unsupported interval %q", c.Interval)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1], got %g", c.MinConfidence)
	}
	if c.FetchLimit <= 0 {
		return fmt.Errorf("fetch limit must be positive, got %d", c.FetchLimit)
	}
	if c.Mode == "backtest" && c.BacktestCSV == "" {
		return fmt.Errorf("backtest mode requires -backtest-csv")
	}
	return nil
}
