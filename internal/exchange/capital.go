package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/candle"
)

const capitalDefaultBaseURL = "https://api-capital.backend-capital.com"

// Capital fetches price history from the Capital.com REST API.
// Instruments are addressed by epic (e.g. "EURUSD", "GOLD"); prices
// come as bid/ask pairs and are collapsed to their midpoint.
type Capital struct {
	client  *Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewCapital creates a Capital.com fetcher. An empty baseURL uses the
// production endpoint.
func NewCapital(client *Client, baseURL, apiKey string) *Capital {
	if baseURL == "" {
		baseURL = capitalDefaultBaseURL
	}
	return &Capital{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  log.With().Str("fetcher", "capital").Logger(),
	}
}

func (c *Capital) Name() string { return "capital" }

type capitalQuote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

func (q capitalQuote) mid() float64 { return (q.Bid + q.Ask) / 2 }

type capitalPricesResponse struct {
	Prices []struct {
		SnapshotTime     string       `json:"snapshotTime"`
		OpenPrice        capitalQuote `json:"openPrice"`
		HighPrice        capitalQuote `json:"highPrice"`
		LowPrice         capitalQuote `json:"lowPrice"`
		ClosePrice       capitalQuote `json:"closePrice"`
		LastTradedVolume float64      `json:"lastTradedVolume"`
	} `json:"prices"`
}

// Candles fetches up to limit bars for an epic, oldest first.
func (c *Capital) Candles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	resolution, err := capitalResolution(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("resolution", resolution)
	params.Set("max", strconv.Itoa(limit))

	header := http.Header{}
	header.Set("X-CAP-API-KEY", c.apiKey)

	endpoint := c.baseURL + "/api/v1/prices/" + url.PathEscape(symbol) + "?" + params.Encode()

	var resp capitalPricesResponse
	if err := c.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, fmt.Errorf("capital prices request for %s: %w", symbol, err)
	}
	if len(resp.Prices) == 0 {
		return nil, fmt.Errorf("capital prices for %s: %w", symbol, ErrNoData)
	}

	candles := make([]candle.Candle, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		ts, err := time.Parse("2006-01-02T15:04:05", p.SnapshotTime)
		if err != nil {
			c.logger.Debug().Err(err).Str("symbol", symbol).Msg("skipping malformed snapshot")
			continue
		}
		candles = append(candles, candle.Candle{
			Timestamp: ts.UTC(),
			Open:      p.OpenPrice.mid(),
			High:      p.HighPrice.mid(),
			Low:       p.LowPrice.mid(),
			Close:     p.ClosePrice.mid(),
			Volume:    p.LastTradedVolume,
			Symbol:    symbol,
			Timeframe: interval,
			Source:    "capital",
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("capital prices for %s: %w", symbol, ErrNoData)
	}

	candle.SortByTimestamp(candles)
	return candles, nil
}

// capitalResolution maps a canonical timeframe to Capital.com's
// resolution names.
func capitalResolution(interval string) (string, error) {
	switch interval {
	case "1m":
		return "MINUTE", nil
	case "5m":
		return "MINUTE_5", nil
	case "15m":
		return "MINUTE_15", nil
	case "30m":
		return "MINUTE_30", nil
	case "1h":
		return "HOUR", nil
	case "4h":
		return "HOUR_4", nil
	case "1d":
		return "DAY", nil
	default:
		return "", fmt.Errorf("capital does not support interval %q", interval)
	}
}
