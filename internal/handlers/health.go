package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mtfultz/diversify/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	depsStatus := map[string]models.DepStatus{}
	ok := true
	if a.health != nil {
		if err := a.health(ctx); err != nil {
			ok = false
			depsStatus["cache"] = models.DepStatus{Ok: false, Error: err.Error()}
		} else {
			depsStatus["cache"] = models.DepStatus{Ok: true}
		}
	}

	backend := "none"
	if a.cache != nil {
		backend = a.cache.Backend()
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Ok:           ok,
		TsISO:        nowISO(),
		Service:      "diversify-api",
		Version:      os.Getenv("SERVICE_VERSION"),
		CacheBackend: backend,
		DepsStatus:   depsStatus,
		Env: map[string]bool{
			"COINGECKO_API_KEY": a.cfg.CoinGeckoAPIKey != "",
		},
	})
}
