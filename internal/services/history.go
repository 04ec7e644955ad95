package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/models"
)

// PriceSource is the upstream surface the aggregator fans out over.
type PriceSource interface {
	MarketChart(ctx context.Context, coinID string, days int) ([]models.PricePoint, error)
	SimplePrice(ctx context.Context, ids []string) (map[string]models.SpotPrice, error)
}

// HistoryAggregator turns holdings into one portfolio-value series.
type HistoryAggregator struct {
	src   PriceSource
	cache *TTLCache[models.MergedSeries]
	now   func() time.Time
	log   *zap.Logger
}

func NewHistoryAggregator(src PriceSource, cache *TTLCache[models.MergedSeries], log *zap.Logger) *HistoryAggregator {
	return &HistoryAggregator{src: src, cache: cache, now: time.Now, log: log}
}

// Aggregate returns the merged USD value series of holdings over the trailing days,
// ending with a live valuation point. Any upstream failure aborts the whole
// aggregation; partial series are never returned or cached.
func (a *HistoryAggregator) Aggregate(ctx context.Context, userID string, holdings []models.Holding, days int) (models.MergedSeries, error) {
	if len(holdings) == 0 {
		return models.MergedSeries{}, nil
	}
	key, err := historyCacheKey(userID, days, holdings)
	if err != nil {
		return nil, err
	}
	return a.cache.GetOrCompute(ctx, key, func(ctx context.Context) (models.MergedSeries, error) {
		return a.build(ctx, holdings, days)
	})
}

func (a *HistoryAggregator) build(ctx context.Context, holdings []models.Holding, days int) (models.MergedSeries, error) {
	acc := newSeriesAccumulator()
	// sequential on purpose: the gateway paces every call anyway
	for _, h := range holdings {
		points, err := a.src.MarketChart(ctx, h.CoinID, days)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", h.CoinID, err)
		}
		for _, p := range points {
			acc.add(p.Timestamp, p.Value, h.Amount)
		}
	}

	spot, err := a.src.SimplePrice(ctx, normalizeIDs(HoldingIDs(holdings)))
	if err != nil {
		return nil, fmt.Errorf("live valuation: %w", err)
	}
	acc.set(a.now().UnixMilli(), Valuation(spot, holdings))

	series := acc.points()
	a.log.Debug("history aggregated",
		zap.Int("holdings", len(holdings)),
		zap.Int("days", days),
		zap.Int("points", len(series)))
	return series, nil
}

// Valuation prices holdings at the given spot prices. Missing prices count as zero.
func Valuation(spot map[string]models.SpotPrice, holdings []models.Holding) float64 {
	total := decimal.Zero
	for _, h := range holdings {
		p, ok := spot[strings.ToLower(strings.TrimSpace(h.CoinID))]
		if !ok {
			continue
		}
		if v, ok := product(p.USD, h.Amount); ok {
			total = total.Add(v)
		}
	}
	return total.InexactFloat64()
}

// HoldingIDs lists the coin ids of holdings in order.
func HoldingIDs(holdings []models.Holding) []string {
	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		ids = append(ids, h.CoinID)
	}
	return ids
}

func historyCacheKey(userID string, days int, holdings []models.Holding) (string, error) {
	b, err := json.Marshal(holdings)
	if err != nil {
		return "", fmt.Errorf("encode holdings: %w", err)
	}
	sum := sha1.Sum(b)
	return fmt.Sprintf("%s:%d:%s", userID, days, hex.EncodeToString(sum[:8])), nil
}

// seriesAccumulator keeps one running total per exact timestamp. Holdings sampled
// at different timestamps never interpolate onto each other.
type seriesAccumulator struct {
	totals map[int64]decimal.Decimal
}

func newSeriesAccumulator() *seriesAccumulator {
	return &seriesAccumulator{totals: make(map[int64]decimal.Decimal)}
}

func (s *seriesAccumulator) add(ts int64, price, amount float64) {
	v, ok := product(price, amount)
	if !ok {
		return
	}
	s.totals[ts] = s.totals[ts].Add(v)
}

func (s *seriesAccumulator) set(ts int64, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	s.totals[ts] = decimal.NewFromFloat(value)
}

func (s *seriesAccumulator) points() models.MergedSeries {
	out := make(models.MergedSeries, 0, len(s.totals))
	for ts, v := range s.totals {
		out = append(out, models.PricePoint{Timestamp: ts, Value: v.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func product(price, amount float64) (decimal.Decimal, bool) {
	if math.IsNaN(price) || math.IsInf(price, 0) || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(amount)), true
}
