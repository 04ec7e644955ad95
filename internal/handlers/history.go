package handlers

import (
	"net/http"
	"strings"

	"github.com/mtfultz/diversify/internal/models"
	"github.com/mtfultz/diversify/internal/services"
)

func (a *API) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		userID = services.DemoUserID
	}
	days := parseIntParam(q.Get("days"), 30, 1, 3650)

	p, ok, err := a.store.Get(r.Context(), userID)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	if !ok || len(p.Coins) == 0 {
		writeJSON(w, http.StatusOK, models.MergedSeries{})
		return
	}

	series, err := a.history.Aggregate(r.Context(), userID, p.Coins, days)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
