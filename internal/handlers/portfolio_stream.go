package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/models"
	"github.com/mtfultz/diversify/internal/services"
)

// StreamPortfolio pushes the live USD valuation of a portfolio as server-sent events.
// Prices come from the spot-price cache, so subscribers never add upstream load
// beyond one refresh per cache window.
func (a *API) StreamPortfolio(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}

	userID := mux.Vars(r)["userId"]
	intervalSec := parseIntParam(r.URL.Query().Get("interval"), 15, 5, 60)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	emit := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	send := func() {
		p, _, err := a.store.Get(r.Context(), userID)
		if err != nil {
			emit(map[string]any{"error": "portfolio_store_unavailable", "ts": nowISO()})
			return
		}
		spot, err := a.market.Prices(r.Context(), services.HoldingIDs(p.Coins))
		if err != nil {
			a.log.Warn("stream valuation failed", zap.String("userId", userID), zap.Error(err))
			emit(map[string]any{"error": err.Error(), "ts": nowISO()})
			return
		}
		emit(models.Valuation{
			UserID: userID,
			USD:    services.Valuation(spot, p.Coins),
			TsISO:  nowISO(),
		})
	}

	send()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			send()
		}
	}
}
