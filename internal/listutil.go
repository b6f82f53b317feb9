package internal

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"triveni-inventory-api/internal/models"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit  int
	offset int
	q      string
	sort   string
}

// parseListParams parses limit, offset, q, and sort from the request
// Defaults: limit=50 (max 200), offset=0
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 50
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:  limit,
		offset: offset,
		q:      strings.TrimSpace(values.Get("q")),
		sort:   strings.TrimSpace(values.Get("sort")),
	}
}

// listResponse is the envelope every list endpoint returns
type listResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func sendListResponse(w http.ResponseWriter, items interface{}, total int, params listParams) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(listResponse{
		Items:  items,
		Total:  total,
		Limit:  params.limit,
		Offset: params.offset,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// filterAssetSets keeps sets whose name, assignee, or status contains q,
// case-insensitively.
func filterAssetSets(sets []models.AssetSet, q string) []models.AssetSet {
	if q == "" {
		return sets
	}
	q = strings.ToLower(q)
	filtered := make([]models.AssetSet, 0, len(sets))
	for _, set := range sets {
		if strings.Contains(strings.ToLower(set.SetName), q) ||
			strings.Contains(strings.ToLower(set.Assignee), q) ||
			strings.Contains(strings.ToLower(set.Status), q) {
			filtered = append(filtered, set)
		}
	}
	return filtered
}

// sortAssetSets orders sets by the sort key, newest first by default.
// Allowed keys: id, setName, status. Prefix with '-' for descending.
func sortAssetSets(sets []models.AssetSet, sortParam string) {
	key := sortParam
	if key == "" {
		key = "-id"
	}
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	var less func(a, b models.AssetSet) bool
	switch key {
	case "setName":
		less = func(a, b models.AssetSet) bool { return a.SetName < b.SetName }
	case "status":
		less = func(a, b models.AssetSet) bool { return a.Status < b.Status }
	default:
		less = func(a, b models.AssetSet) bool { return a.ID < b.ID }
	}

	sort.SliceStable(sets, func(i, j int) bool {
		if desc {
			return less(sets[j], sets[i])
		}
		return less(sets[i], sets[j])
	})
}

// paginate applies offset/limit to an already sorted slice.
func paginate(sets []models.AssetSet, params listParams) []models.AssetSet {
	if params.offset >= len(sets) {
		return []models.AssetSet{}
	}
	end := params.offset + params.limit
	if end > len(sets) {
		end = len(sets)
	}
	return sets[params.offset:end]
}
