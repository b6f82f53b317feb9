package internal

import (
	"encoding/json"
	"net/http"
	"strings"

	"triveni-inventory-api/internal/models"
)

// UnknownSize labels monitors whose size field is empty in the size
// breakdown.
const UnknownSize = "UNKNOWN"

// Stats is the aggregate view of the asset-set collection.
type Stats struct {
	TotalSets     int            `json:"totalSets"`
	ByStatus      map[string]int `json:"byStatus"`
	TotalDisplays int            `json:"totalDisplays"`
	FreeDisplays  int            `json:"freeDisplays"`
	BrandCounts   map[string]int `json:"brandCounts"`
	SizeCounts    map[string]int `json:"sizeCounts"`
}

// computeStats aggregates over the full collection in one pass. Every
// known status appears in the breakdown even at zero. Monitors count only
// when their slot is present, and brand/size labels are folded to upper
// case so "dell" and "Dell" tally together.
func computeStats(sets []models.AssetSet) Stats {
	stats := Stats{
		ByStatus:    make(map[string]int, len(models.Statuses)),
		BrandCounts: make(map[string]int),
		SizeCounts:  make(map[string]int),
	}
	for _, status := range models.Statuses {
		stats.ByStatus[status] = 0
	}

	for _, set := range sets {
		stats.TotalSets++
		if _, ok := stats.ByStatus[set.Status]; ok {
			stats.ByStatus[set.Status]++
		}

		for _, display := range []models.DisplayUnit{set.Display1, set.Display2} {
			if !display.Present() {
				continue
			}
			stats.TotalDisplays++
			if set.Status == models.StatusFree {
				stats.FreeDisplays++
			}
			stats.BrandCounts[strings.ToUpper(strings.TrimSpace(display.Brand))]++

			size := strings.ToUpper(strings.TrimSpace(display.Size))
			if size == "" {
				size = UnknownSize
			}
			stats.SizeCounts[size]++
		}
	}
	return stats
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	sets, err := s.loadAssetSets(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(computeStats(sets))
}
