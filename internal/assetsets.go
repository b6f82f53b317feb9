package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/internal/store"
	"triveni-inventory-api/pkg/assettag"
	"triveni-inventory-api/pkg/export"
)

// decodeAssetSets turns a raw collection snapshot into normalized records.
// Documents that fail to decode are skipped rather than failing the whole
// listing.
func decodeAssetSets(docs map[string]json.RawMessage) []models.AssetSet {
	sets := make([]models.AssetSet, 0, len(docs))
	for _, raw := range docs {
		var set models.AssetSet
		if err := json.Unmarshal(raw, &set); err != nil {
			continue
		}
		set.Normalize()
		sets = append(sets, set)
	}
	return sets
}

func (s *Server) loadAssetSets(r *http.Request) ([]models.AssetSet, error) {
	docs, err := s.Store.GetAll(r.Context(), store.CollectionAssets)
	if err != nil {
		return nil, err
	}
	return decodeAssetSets(docs), nil
}

// LIST with basic filters & pagination
func (s *Server) listAssetSets(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	sets, err := s.loadAssetSets(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	sets = filterAssetSets(sets, params.q)
	sortAssetSets(sets, params.sort)
	total := len(sets)
	page := paginate(sets, params)

	sendListResponse(w, page, total, params)
}

func (s *Server) getAssetSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	raw, err := s.Store.Get(r.Context(), store.CollectionAssets, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var set models.AssetSet
	if err := json.Unmarshal(raw, &set); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	set.Normalize()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(set)
}

func (s *Server) createAssetSet(w http.ResponseWriter, r *http.Request) {
	var in models.AssetSetRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if msg := in.Validate(); msg != "" {
		http.Error(w, msg, 400)
		return
	}

	now := time.Now()
	set := in.Build(models.NewAssetSetID(now), now.Format(models.CreatedAtFormat))

	key := strconv.FormatInt(set.ID, 10)
	if err := s.Store.Put(r.Context(), store.CollectionAssets, key, set); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(set)
}

func (s *Server) updateAssetSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	raw, err := s.Store.Get(r.Context(), store.CollectionAssets, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var existing models.AssetSet
	if err := json.Unmarshal(raw, &existing); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var in models.AssetSetRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if msg := in.Validate(); msg != "" {
		http.Error(w, msg, 400)
		return
	}

	// id and creation date survive every edit
	set := in.Build(existing.ID, existing.CreatedAt)

	if err := s.Store.Put(r.Context(), store.CollectionAssets, id, set); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(set)
}

func (s *Server) deleteAssetSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.Store.Delete(r.Context(), store.CollectionAssets, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportAssetSets streams the full collection as an XLSX attachment,
// sorted the same way as the default listing.
func (s *Server) exportAssetSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.loadAssetSets(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	sortAssetSets(sets, "-id")

	data, err := export.AssetSetTable(sets).XLSX("Asset Sets")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="asset_sets.xlsx"`)
	w.Write(data)
}

// previewTags returns the ID tags that would be generated for a set name,
// so the form can show them before the record exists.
func (s *Server) previewTags(w http.ResponseWriter, r *http.Request) {
	setName := r.URL.Query().Get("set_name")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(assettag.Generate(setName))
}
