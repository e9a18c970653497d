package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"reviewharvest/internal/domain"
)

// Handlers exposes the live run state. Stats is read as snapshots; the run
// owns the underlying counters.
type Handlers struct {
	RunID    string
	Platform domain.Platform
	AppID    string
	Stats    *domain.RunStats
}

type statsResponse struct {
	RunID           string  `json:"run_id"`
	Platform        string  `json:"platform"`
	AppID           string  `json:"app_id"`
	Fetched         int     `json:"fetched"`
	Errors          int     `json:"errors"`
	SecurityRelated int     `json:"security_related"`
	SecurityPercent float64 `json:"security_percent"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.Get("/stats", h.getStats)
}

func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	snap := h.Stats.Snapshot()
	resp := statsResponse{
		RunID:           h.RunID,
		Platform:        string(h.Platform),
		AppID:           h.AppID,
		Fetched:         snap.Fetched,
		Errors:          snap.Errors,
		SecurityRelated: snap.SecurityRelated,
		SecurityPercent: snap.SecurityPercent(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}
