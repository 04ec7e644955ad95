package handlers

import (
	"net/http"
)

func (a *API) CoinsList(w http.ResponseWriter, r *http.Request) {
	coins, err := a.market.Catalog(r.Context())
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coins)
}

// CoinsSearch backs the coin picker. It degrades to an empty list instead of failing.
func (a *API) CoinsSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntParam(q.Get("limit"), 20, 1, 200)
	writeJSON(w, http.StatusOK, a.market.SearchCatalog(r.Context(), q.Get("q"), limit))
}

func (a *API) Prices(w http.ResponseWriter, r *http.Request) {
	ids := parseIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	prices, err := a.market.Prices(r.Context(), ids)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}
