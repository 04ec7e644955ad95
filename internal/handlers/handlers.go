package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
	"github.com/mtfultz/diversify/internal/services"
)

type API struct {
	cfg     config.Config
	cache   services.Cache
	market  *services.MarketService
	history *services.HistoryAggregator
	store   services.PortfolioStore
	health  func(ctx context.Context) error
	log     *zap.Logger
}

// Deps carries the collaborators the handlers call into.
type Deps struct {
	Cache   services.Cache
	Market  *services.MarketService
	History *services.HistoryAggregator
	Store   services.PortfolioStore
	// CacheHealth pings the cache backend; nil means nothing to check.
	CacheHealth func(ctx context.Context) error
}

func New(cfg config.Config, deps Deps, log *zap.Logger) *API {
	return &API{
		cfg:     cfg,
		cache:   deps.Cache,
		market:  deps.Market,
		history: deps.History,
		store:   deps.Store,
		health:  deps.CacheHealth,
		log:     log,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIDs(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseIntParam(v string, def int, min int, max int) int {
	if v == "" {
		return def
	}
	var out int
	_, err := fmt.Sscanf(v, "%d", &out)
	if err != nil {
		return def
	}
	if out < min {
		return min
	}
	if out > max {
		return max
	}
	return out
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
