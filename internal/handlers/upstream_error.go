package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/services"
)

// writeUpstreamError reports every upstream failure as a 502 with a short message.
func (a *API) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		a.log.Debug("client went away", zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "request cancelled"})
		return
	}
	a.log.Warn("upstream failure", zap.String("path", r.URL.Path), zap.Error(err))

	var upErr *services.UpstreamError
	if errors.As(err, &upErr) && upErr.Status != 0 {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": upErr.Error(), "upstream_status": upErr.Status})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
}

func (a *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Error("portfolio store failure", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "portfolio_store_unavailable"})
}
