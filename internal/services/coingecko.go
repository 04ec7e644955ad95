package services

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/mtfultz/diversify/internal/models"
)

// CoinGecko maps the three upstream endpoints onto typed results. It performs no caching.
type CoinGecko struct {
	gw Caller
}

func NewCoinGecko(gw Caller) *CoinGecko {
	return &CoinGecko{gw: gw}
}

// Markets lists the top coins by market cap, trimmed to the fields the UI uses.
func (c *CoinGecko) Markets(ctx context.Context, limit int) ([]models.Coin, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var raw []models.Coin
	if err := c.gw.Call(ctx, "/coins/markets", params, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = []models.Coin{}
	}
	return raw, nil
}

// SimplePrice fetches USD spot prices and 24h change for ids in one request.
func (c *CoinGecko) SimplePrice(ctx context.Context, ids []string) (map[string]models.SpotPrice, error) {
	if len(ids) == 0 {
		return map[string]models.SpotPrice{}, nil
	}
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	out := map[string]models.SpotPrice{}
	if err := c.gw.Call(ctx, "/simple/price", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type marketChartResponse struct {
	Prices []json.RawMessage `json:"prices"`
}

// MarketChart fetches one coin's USD price history for the trailing number of days.
// Samples with a non-numeric or non-finite price are dropped.
func (c *CoinGecko) MarketChart(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))

	var raw marketChartResponse
	if err := c.gw.Call(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart", params, &raw); err != nil {
		return nil, err
	}
	return parsePricePoints(raw.Prices), nil
}

func parsePricePoints(raw []json.RawMessage) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(raw))
	for _, item := range raw {
		var pair []any
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) < 2 {
			continue
		}
		ts, ok := finiteNumber(pair[0])
		if !ok {
			continue
		}
		price, ok := finiteNumber(pair[1])
		if !ok {
			continue
		}
		out = append(out, models.PricePoint{Timestamp: int64(ts), Value: price})
	}
	return out
}

func finiteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
