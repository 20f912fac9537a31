package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amirphl/signal-bot/internal/candle"
)

const (
	bybitDefaultBaseURL = "https://api.bybit.com"
	bybitRecvWindow     = "5000"
)

// Bybit fetches kline data from the Bybit v5 market API. The kline
// endpoint is public; API credentials are optional and only attached
// when configured.
type Bybit struct {
	client    *Client
	baseURL   string
	apiKey    string
	apiSecret string
	category  string
	logger    zerolog.Logger
}

// NewBybit creates a Bybit fetcher. An empty baseURL uses the
// production endpoint.
func NewBybit(client *Client, baseURL, apiKey, apiSecret string) *Bybit {
	if baseURL == "" {
		baseURL = bybitDefaultBaseURL
	}
	return &Bybit{
		client:    client,
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		category:  "spot",
		logger:    log.With().Str("fetcher", "bybit").Logger(),
	}
}

func (b *Bybit) Name() string { return "bybit" }

type bybitKlineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	} `json:"result"`
}

// Candles fetches up to limit bars. Bybit returns the list newest
// first; the result is reversed into chronological order.
func (b *Bybit) Candles(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	wireInterval, err := bybitInterval(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("category", b.category)
	params.Set("symbol", symbol)
	params.Set("interval", wireInterval)
	params.Set("limit", strconv.Itoa(limit))
	query := params.Encode()

	header := http.Header{}
	if b.apiKey != "" && b.apiSecret != "" {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		header.Set("X-BAPI-API-KEY", b.apiKey)
		header.Set("X-BAPI-TIMESTAMP", timestamp)
		header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
		header.Set("X-BAPI-SIGN", b.sign(timestamp, query))
	}

	var resp bybitKlineResponse
	if err := b.client.GetJSON(ctx, b.baseURL+"/v5/market/kline?"+query, header, &resp); err != nil {
		return nil, fmt.Errorf("bybit kline request for %s: %w", symbol, err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit API error %d: %s", resp.RetCode, resp.RetMsg)
	}
	if len(resp.Result.List) == 0 {
		return nil, fmt.Errorf("bybit kline for %s: %w", symbol, ErrNoData)
	}

	candles := make([]candle.Candle, 0, len(resp.Result.List))
	for i := len(resp.Result.List) - 1; i >= 0; i-- {
		row := resp.Result.List[i]
		if len(row) < 6 {
			continue
		}
		c, err := parseBybitRow(row, symbol, interval)
		if err != nil {
			b.logger.Debug().Err(err).Str("symbol", symbol).Msg("skipping malformed kline row")
			continue
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("bybit kline for %s: %w", symbol, ErrNoData)
	}

	candle.SortByTimestamp(candles)
	return candles, nil
}

// parseBybitRow decodes one kline row
// [startTime, open, high, low, close, volume, turnover].
func parseBybitRow(row []string, symbol, interval string) (candle.Candle, error) {
	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("parsing kline timestamp %q: %w", row[0], err)
	}

	values := make([]float64, 5)
	for i := 0; i < 5; i++ {
		values[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("parsing kline field %q: %w", row[i+1], err)
		}
	}

	return candle.Candle{
		Timestamp: time.UnixMilli(ms).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Symbol:    symbol,
		Timeframe: interval,
		Source:    "bybit",
	}, nil
}

func (b *Bybit) sign(timestamp, query string) string {
	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(timestamp + b.apiKey + bybitRecvWindow + query))
	return hex.EncodeToString(mac.Sum(nil))
}

// bybitInterval maps a canonical timeframe to Bybit's interval codes.
func bybitInterval(interval string) (string, error) {
	switch interval {
	case "1m":
		return "1", nil
	case "5m":
		return "5", nil
	case "15m":
		return "15", nil
	case "30m":
		return "30", nil
	case "1h":
		return "60", nil
	case "4h":
		return "240", nil
	case "1d":
		return "D", nil
	default:
		return "", fmt.Errorf("bybit does not support interval %q", interval)
	}
}
