package services

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
	"github.com/mtfultz/diversify/internal/models"
)

// MarketService fronts the catalog and spot-price endpoints with their caches.
type MarketService struct {
	cg      *CoinGecko
	catalog *TTLCache[[]models.Coin]
	prices  *TTLCache[map[string]models.SpotPrice]
	limit   int
	log     *zap.Logger
}

func NewMarketService(cfg config.Config, cg *CoinGecko, store Cache, log *zap.Logger) *MarketService {
	limit := cfg.CatalogLimit
	if limit <= 0 {
		limit = 200
	}
	return &MarketService{
		cg:      cg,
		catalog: NewTTLCache[[]models.Coin]("top", store, cfg.CacheTTLCatalog, log),
		prices:  NewTTLCache[map[string]models.SpotPrice]("prices", store, cfg.CacheTTLPrices, log),
		limit:   limit,
		log:     log,
	}
}

func (s *MarketService) Catalog(ctx context.Context) ([]models.Coin, error) {
	return s.catalog.GetOrCompute(ctx, strconv.Itoa(s.limit), func(ctx context.Context) ([]models.Coin, error) {
		return s.cg.Markets(ctx, s.limit)
	})
}

// SearchCatalog matches query against id, symbol and name. It never fails: an
// unavailable catalog yields an empty list.
func (s *MarketService) SearchCatalog(ctx context.Context, query string, limit int) []models.Coin {
	coins, err := s.Catalog(ctx)
	if err != nil {
		s.log.Warn("catalog unavailable for search", zap.Error(err))
		return []models.Coin{}
	}
	return filterCoins(coins, query, limit)
}

func filterCoins(coins []models.Coin, query string, limit int) []models.Coin {
	if limit <= 0 {
		return []models.Coin{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Coin, 0, limit)
	for _, c := range coins {
		if len(out) >= limit {
			break
		}
		if q == "" ||
			strings.Contains(strings.ToLower(c.ID), q) ||
			strings.Contains(strings.ToLower(c.Symbol), q) ||
			strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// Prices returns spot prices keyed by coin id. An empty id list makes no upstream call.
func (s *MarketService) Prices(ctx context.Context, ids []string) (map[string]models.SpotPrice, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return map[string]models.SpotPrice{}, nil
	}
	return s.prices.GetOrCompute(ctx, strings.Join(ids, ","), func(ctx context.Context) (map[string]models.SpotPrice, error) {
		return s.cg.SimplePrice(ctx, ids)
	})
}

// normalizeIDs lowercases, trims, de-duplicates and sorts coin ids.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
