package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/internal/store"
	"triveni-inventory-api/pkg/export"
)

// spareEntry is a spare item together with its store key, as returned by
// the list endpoint.
type spareEntry struct {
	Key string `json:"key"`
	models.SpareItem
}

// spareGroup is one category bucket of the grouped listing.
type spareGroup struct {
	Category string       `json:"category"`
	Items    []spareEntry `json:"items"`
}

func decodeSpares(docs map[string]json.RawMessage) map[string]models.SpareItem {
	items := make(map[string]models.SpareItem, len(docs))
	for key, raw := range docs {
		var item models.SpareItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items[key] = item
	}
	return items
}

// groupSpares buckets items into the fixed category order, with unknown
// categories collected under Others at the end. Items inside a bucket are
// sorted by name.
func groupSpares(items map[string]models.SpareItem) []spareGroup {
	buckets := make(map[string][]spareEntry)
	for key, item := range items {
		category := item.Category
		if !models.KnownCategory(category) {
			category = models.CategoryOthers
		}
		buckets[category] = append(buckets[category], spareEntry{Key: key, SpareItem: item})
	}

	order := append(append([]string{}, models.SpareCategories...), models.CategoryOthers)
	groups := make([]spareGroup, 0, len(order))
	for _, category := range order {
		entries := buckets[category]
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		groups = append(groups, spareGroup{Category: category, Items: entries})
	}
	return groups
}

func (s *Server) loadSpares(r *http.Request) (map[string]models.SpareItem, error) {
	docs, err := s.Store.GetAll(r.Context(), store.CollectionSpares)
	if err != nil {
		return nil, err
	}
	return decodeSpares(docs), nil
}

func (s *Server) listSpares(w http.ResponseWriter, r *http.Request) {
	items, err := s.loadSpares(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Groups []spareGroup `json:"groups"`
		Total  int          `json:"total"`
	}{Groups: groupSpares(items), Total: len(items)})
}

// spareRequest is the payload for adding a custom spare item.
type spareRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
}

func (s *Server) addSpare(w http.ResponseWriter, r *http.Request) {
	var in spareRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", 400)
		return
	}
	if in.Qty < 0 {
		http.Error(w, "qty must not be negative", 400)
		return
	}
	category := in.Category
	if !models.KnownCategory(category) {
		category = models.CategoryOthers
	}

	key := models.NewSpareKey(in.Name)
	item := models.SpareItem{Category: category, Name: strings.TrimSpace(in.Name), Qty: in.Qty}
	if err := s.Store.Put(r.Context(), store.CollectionSpares, key, item); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(spareEntry{Key: key, SpareItem: item})
}

// adjustSpare applies a signed delta to one item's quantity. The quantity
// never goes below zero; an adjustment that would is rejected.
func (s *Server) adjustSpare(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var in struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	raw, err := s.Store.Get(r.Context(), store.CollectionSpares, key)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var item models.SpareItem
	if err := json.Unmarshal(raw, &item); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	item, ok := item.WithDelta(in.Delta)
	if !ok {
		http.Error(w, "quantity cannot go below zero", 400)
		return
	}

	if err := s.Store.Put(r.Context(), store.CollectionSpares, key, item); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spareEntry{Key: key, SpareItem: item})
}

func (s *Server) deleteSpare(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	err := s.Store.Delete(r.Context(), store.CollectionSpares, key)
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

// resetSpares discards the whole collection and restores the built-in
// inventory with all quantities at zero.
func (s *Server) resetSpares(w http.ResponseWriter, r *http.Request) {
	docs := make(map[string]any)
	for key, item := range models.DefaultSpares() {
		docs[key] = item
	}

	if err := s.Store.ReplaceAll(r.Context(), store.CollectionSpares, docs); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Restored int `json:"restored"`
	}{Restored: len(docs)})
}

func (s *Server) exportSpares(w http.ResponseWriter, r *http.Request) {
	items, err := s.loadSpares(r)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	data, err := export.SpareTable(items).XLSX("Spares")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="spares.xlsx"`)
	w.Write(data)
}
