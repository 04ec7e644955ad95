package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
	"github.com/mtfultz/diversify/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, log *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", api.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/coins/list", api.CoinsList).Methods(http.MethodGet)
	r.HandleFunc("/api/coins/search", api.CoinsSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/prices", api.Prices).Methods(http.MethodGet)
	r.HandleFunc("/api/portfolio", api.SavePortfolio).Methods(http.MethodPost)
	r.HandleFunc("/api/portfolio/{userId}", api.GetPortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/portfolio/{userId}/stream", api.StreamPortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/history", api.History).Methods(http.MethodGet)

	h := http.Handler(r)
	h = withRecovery(log)(h)
	h = withLogging(log)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
