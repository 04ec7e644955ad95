package models

import (
	"encoding/json"
	"fmt"
)

// Coin is the trimmed catalog entry sent to the UI.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type SpotPrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

type Holding struct {
	CoinID string  `json:"coinId"`
	Amount float64 `json:"amount"`
}

type Portfolio struct {
	UserID string    `json:"userId"`
	Coins  []Holding `json:"coins"`
}

// PricePoint is one sample of a series. It travels as a [timestampMs, value] pair.
type PricePoint struct {
	Timestamp int64
	Value     float64
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Timestamp, p.Value})
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("price point: expected 2 elements, got %d", len(pair))
	}
	p.Timestamp = int64(pair[0])
	p.Value = pair[1]
	return nil
}

// MergedSeries is ordered by strictly increasing timestamp.
type MergedSeries []PricePoint

type Valuation struct {
	UserID string  `json:"userId"`
	USD    float64 `json:"usd"`
	TsISO  string  `json:"ts"`
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok           bool                 `json:"ok"`
	TsISO        string               `json:"tsISO"`
	Service      string               `json:"service"`
	Version      string               `json:"version,omitempty"`
	CacheBackend string               `json:"cache_backend"`
	DepsStatus   map[string]DepStatus `json:"deps_status"`
	Env          map[string]bool      `json:"env"`
}
