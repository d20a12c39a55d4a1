package aggregator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
)

// SnapshotLister reads persisted snapshots. *Store satisfies it.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error)
}

// SnapshotHandler serves GET /api/v1/analytics/snapshots?limit=N.
func SnapshotHandler(src SnapshotLister) http.HandlerFunc {
	log := slog.Default().With("component", "analytics-snapshots")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 1000 {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "limit must be in 1..1000"})
				return
			}
			limit = n
		}
		snaps, err := src.ListSnapshots(r.Context(), limit)
		if err != nil {
			log.Error("listing snapshots failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
			return
		}
		if snaps == nil {
			snaps = []analytics.AggregatedStats{}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"snapshots": snaps, "count": len(snaps)})
	}
}
