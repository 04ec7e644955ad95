package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mtfultz/diversify/internal/models"
)

// GetPortfolio never 404s: an unknown user gets an empty record.
func (a *API) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	p, ok, err := a.store.Get(r.Context(), userID)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	if !ok {
		p = models.Portfolio{UserID: userID, Coins: []models.Holding{}}
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) SavePortfolio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	defer r.Body.Close()
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload_too_large"})
		return
	}
	var p models.Portfolio
	if err := json.Unmarshal(payload, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_json"})
		return
	}
	saved, err := a.store.Save(r.Context(), p)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
