package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// StatsReader produces the current aggregate. *Aggregator satisfies it.
type StatsReader interface {
	Stats() AggregatedStats
}

// Handler serves the live dashboard figures.
type Handler struct {
	stats  StatsReader
	logger *slog.Logger
}

func NewHandler(stats StatsReader) *Handler {
	return &Handler{stats: stats, logger: slog.Default().With("component", "analytics-handler")}
}

// Stats serves GET /api/v1/analytics. The optional ?top=N trims every
// ranked word list to its first N entries.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.write(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	top := -1
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.write(w, http.StatusBadRequest, map[string]string{"error": "top must be a non-negative integer"})
			return
		}
		top = n
	}

	stats := h.stats.Stats()
	if top >= 0 {
		stats.TopTargets = firstN(stats.TopTargets, top)
		stats.MostMissed = firstN(stats.MostMissed, top)
		stats.MostSubstituted = firstN(stats.MostSubstituted, top)
	}
	w.Header().Set("Cache-Control", "no-store")
	h.write(w, http.StatusOK, stats)
}

func firstN(words []WordCount, n int) []WordCount {
	if len(words) > n {
		return words[:n]
	}
	return words
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
