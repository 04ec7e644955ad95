package services

import (
	"context"
	"encoding/json"
	"testing"
)

func TestParsePricePointsDropsNonFiniteAndMalformed(t *testing.T) {
	var raw []json.RawMessage
	body := `[[100, 10], [200, null], [300, "NaN"], [400], "junk", [500, 1.5], [null, 3], [600, {"usd": 1}]]`
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	got := parsePricePoints(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid points, got %d: %+v", len(got), got)
	}
	if got[0].Timestamp != 100 || got[0].Value != 10 {
		t.Fatalf("unexpected first point %+v", got[0])
	}
	if got[1].Timestamp != 500 || got[1].Value != 1.5 {
		t.Fatalf("unexpected second point %+v", got[1])
	}
}

func TestMarketChartRequest(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/coins/bitcoin/market_chart"] = `{"prices": [[1700000000000, 35000.5], [1700003600000, 35100]], "market_caps": []}`
	cg := NewCoinGecko(fc)

	points, err := cg.MarketChart(context.Background(), "bitcoin", 7)
	if err != nil {
		t.Fatalf("market chart: %v", err)
	}
	if len(points) != 2 || points[0].Timestamp != 1700000000000 || points[1].Value != 35100 {
		t.Fatalf("unexpected points %+v", points)
	}
	call := fc.calls[0]
	if call.params.Get("days") != "7" || call.params.Get("vs_currency") != "usd" {
		t.Fatalf("unexpected params %v", call.params)
	}
}

func TestMarketChartWithoutPricesIsEmpty(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/coins/unknown/market_chart"] = `{"error": "coin not found"}`
	points, err := NewCoinGecko(fc).MarketChart(context.Background(), "unknown", 30)
	if err != nil {
		t.Fatalf("market chart: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %+v", points)
	}
}

func TestMarketsTrimsFields(t *testing.T) {
	fc := newFakeCaller()
	fc.bodies["/coins/markets"] = `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":35000,"market_cap":1}]`
	coins, err := NewCoinGecko(fc).Markets(context.Background(), 200)
	if err != nil {
		t.Fatalf("markets: %v", err)
	}
	if len(coins) != 1 || coins[0].ID != "bitcoin" || coins[0].Symbol != "btc" || coins[0].Name != "Bitcoin" {
		t.Fatalf("unexpected coins %+v", coins)
	}
	p := fc.calls[0].params
	if p.Get("per_page") != "200" || p.Get("order") != "market_cap_desc" || p.Get("sparkline") != "false" {
		t.Fatalf("unexpected params %v", p)
	}
}

func TestSimplePriceEmptyIDsMakesNoCall(t *testing.T) {
	fc := newFakeCaller()
	out, err := NewCoinGecko(fc).SimplePrice(context.Background(), nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty result, got %v %v", out, err)
	}
	if fc.total() != 0 {
		t.Fatalf("expected no upstream call, got %d", fc.total())
	}
}
