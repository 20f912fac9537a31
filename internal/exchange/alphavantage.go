package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/candle"
)

const alphaVantageDefaultBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage fetches stock candles from the Alpha Vantage time
// series API. The free tier replies with a "Note" payload when the
// rate limit is hit; that and "Error Message" are reported as no-data
// so a throttled poll degrades to an empty pass instead of a crash.
type AlphaVantage struct {
	client  *Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewAlphaVantage creates an Alpha Vantage fetcher. An empty baseURL
// uses the production endpoint.
func NewAlphaVantage(client *Client, baseURL, apiKey string) *AlphaVantage {
	if baseURL == "" {
		baseURL = alphaVantageDefaultBaseURL
	}
	return &AlphaVantage{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  log.With().Str("fetcher", "alphavantage").Logger(),
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

type alphaVantageBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// Candles fetches the most recent bars for a stock symbol, oldest
// first, truncated to limit.
func (a *AlphaVantage) Candles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	function, wireInterval, seriesKey, err := alphaVantageSeries(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", a.apiKey)
	params.Set("outputsize", "full")
	if wireInterval != "" {
		params.Set("interval", wireInterval)
	}

	var payload map[string]json.RawMessage
	if err := a.client.GetJSON(ctx, a.baseURL+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage request for %s: %w", symbol, err)
	}

	if raw, ok := payload["Error Message"]; ok {
		return nil, fmt.Errorf("alpha vantage error for %s (%s): %w", symbol, string(raw), ErrNoData)
	}
	if raw, ok := payload["Note"]; ok {
		a.logger.Warn().Str("symbol", symbol).RawJSON("note", raw).Msg("rate limited")
		return nil, fmt.Errorf("alpha vantage rate limit for %s: %w", symbol, ErrNoData)
	}

	raw, ok := payload[seriesKey]
	if !ok {
		return nil, fmt.Errorf("alpha vantage series %q missing for %s: %w", seriesKey, symbol, ErrNoData)
	}

	var series map[string]alphaVantageBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("decoding alpha vantage series for %s: %w", symbol, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("alpha vantage empty series for %s: %w", symbol, ErrNoData)
	}

	candles := make([]candle.Candle, 0, len(series))
	for stamp, bar := range series {
		c, err := parseAlphaVantageBar(stamp, bar, symbol, interval)
		if err != nil {
			a.logger.Debug().Err(err).Str("symbol", symbol).Msg("skipping malformed bar")
			continue
		}
		candles = append(candles, c)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func parseAlphaVantageBar(stamp string, bar alphaVantageBar, symbol, interval string) (candle.Candle, error) {
	ts, err := time.Parse("2006-01-02 15:04:05", stamp)
	if err != nil {
		ts, err = time.Parse("2006-01-02", stamp)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("parsing timestamp %q: %w", stamp, err)
		}
	}

	fields := []string{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume}
	values := make([]float64, len(fields))
	for i, f := range fields {
		values[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("parsing field %q: %w", f, err)
		}
	}

	return candle.Candle{
		Timestamp: ts.UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Symbol:    symbol,
		Timeframe: interval,
		Source:    "alphavantage",
	}, nil
}

// alphaVantageSeries maps a canonical timeframe to the API function,
// wire interval and the key the series appears under in the response.
func alphaVantageSeries(interval string) (function, wireInterval, seriesKey string, err error) {
	if interval == "1d" {
		return "TIME_SERIES_DAILY", "", "Time Series (Daily)", nil
	}

	switch interval {
	case "1m":
		wireInterval = "1min"
	case "5m":
		wireInterval = "5min"
	case "15m":
		wireInterval = "15min"
	case "30m":
		wireInterval = "30min"
	case "1h":
		wireInterval = "60min"
	default:
		return "", "", "", fmt.Errorf("alpha vantage does not support interval %q", interval)
	}
	return "TIME_SERIES_INTRADAY", wireInterval, fmt.Sprintf("Time Series (%s)", wireInterval), nil
}
