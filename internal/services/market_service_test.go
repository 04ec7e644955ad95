package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
)

func newTestMarketService(fc *fakeCaller) *MarketService {
	cfg := config.Config{
		CacheTTLPrices:  5 * time.Minute,
		CacheTTLCatalog: 24 * time.Hour,
		CatalogLimit:    200,
	}
	return NewMarketService(cfg, NewCoinGecko(fc), NewMemoryCache(), zap.NewNop())
}

func TestPricesEmptyIDsShortCircuits(t *testing.T) {
	fc := newFakeCaller()
	s := newTestMarketService(fc)
	out, err := s.Prices(context.Background(), []string{" ", ""})
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", out)
	}
	if fc.total() != 0 {
		t.Fatalf("expected no upstream call, got %d", fc.total())
	}
}

func TestPricesCachedUnderNormalizedKey(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/simple/price"] = `{"bitcoin":{"usd":35000,"usd_24h_change":1.5},"ethereum":{"usd":2000,"usd_24h_change":-0.5}}`
	s := newTestMarketService(fc)
	ctx := context.Background()

	first, err := s.Prices(ctx, []string{"Ethereum", "bitcoin"})
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	second, err := s.Prices(ctx, []string{"bitcoin", "ethereum", "bitcoin"})
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if fc.count("/simple/price") != 1 {
		t.Fatalf("expected one upstream call for equivalent id sets, got %d", fc.count("/simple/price"))
	}
	if got := fc.calls[0].params.Get("ids"); got != "bitcoin,ethereum" {
		t.Fatalf("expected sorted lowercase ids, got %q", got)
	}
	if first["bitcoin"].USD != 35000 || second["ethereum"].USD24hChange != -0.5 {
		t.Fatalf("unexpected prices %v %v", first, second)
	}
}

func TestPricesPropagatesUpstreamError(t *testing.T) {
	fc := newFakeCaller()
	fc.errs["/simple/price"] = &UpstreamError{Path: "/simple/price", Status: 500}
	_, err := newTestMarketService(fc).Prices(context.Background(), []string{"bitcoin"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCatalogCachedForTheDay(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/coins/markets"] = `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`
	s := newTestMarketService(fc)
	for i := 0; i < 3; i++ {
		if _, err := s.Catalog(context.Background()); err != nil {
			t.Fatalf("catalog: %v", err)
		}
	}
	if fc.count("/coins/markets") != 1 {
		t.Fatalf("expected a single upstream call, got %d", fc.count("/coins/markets"))
	}
}

func TestSearchCatalogMatchesAndLimits(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/coins/markets"] = `[
		{"id":"bitcoin","symbol":"btc","name":"Bitcoin"},
		{"id":"ethereum","symbol":"eth","name":"Ethereum"},
		{"id":"wrapped-bitcoin","symbol":"wbtc","name":"Wrapped Bitcoin"},
		{"id":"tether","symbol":"usdt","name":"Tether"}
	]`
	s := newTestMarketService(fc)
	ctx := context.Background()

	got := s.SearchCatalog(ctx, "BTC", 20)
	if len(got) != 2 || got[0].ID != "bitcoin" || got[1].ID != "wrapped-bitcoin" {
		t.Fatalf("unexpected matches %+v", got)
	}
	if got := s.SearchCatalog(ctx, "", 3); len(got) != 3 {
		t.Fatalf("expected first 3 coins for empty query, got %d", len(got))
	}
	if got := s.SearchCatalog(ctx, "ether", 1); len(got) != 1 || got[0].ID != "ethereum" {
		t.Fatalf("expected limit to apply, got %+v", got)
	}
}

func TestSearchCatalogSoftFailure(t *testing.T) {
	fc := newFakeCaller()
	fc.errs["/coins/markets"] = &UpstreamError{Path: "/coins/markets", Status: 502}
	got := newTestMarketService(fc).SearchCatalog(context.Background(), "btc", 20)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty list on catalog failure, got %v", got)
	}
}
