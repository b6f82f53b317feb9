// Package store synchronizes keyed JSON documents with a persistent
// backend and pushes whole-collection snapshots to subscribers on every
// change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Collection names used by the API.
const (
	CollectionAssets = "assets"
	CollectionSpares = "spares"
)

// ErrNotFound is returned when a keyed document does not exist.
var ErrNotFound = errors.New("store: document not found")

// Snapshot is the full state of one collection at a point in time.
type Snapshot struct {
	Collection string
	Docs       map[string]json.RawMessage
}

// Store is a keyed document store with live snapshot subscriptions.
// Writes are observed through subscriptions rather than return values:
// every mutation broadcasts a fresh whole-collection snapshot, so
// duplicate or out-of-order delivery converges on the last one.
type Store interface {
	// GetAll returns the current snapshot of a collection.
	GetAll(ctx context.Context, collection string) (map[string]json.RawMessage, error)
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	// Put upserts one document by key. Reusing an existing key updates it.
	Put(ctx context.Context, collection, key string, doc any) error
	// Delete removes one document or returns ErrNotFound.
	Delete(ctx context.Context, collection, key string) error
	// ReplaceAll atomically overwrites the entire collection.
	ReplaceAll(ctx context.Context, collection string, docs map[string]any) error
	// Subscribe registers an observer for a collection. The returned
	// subscription's channel receives the current snapshot immediately and
	// a fresh one after every change until Unsubscribe is called.
	Subscribe(ctx context.Context, collection string) (*Subscription, error)
}

// Subscription is a cancellable handle on a collection's snapshot feed.
type Subscription struct {
	C      <-chan Snapshot
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery and releases the subscription. Safe to call
// more than once, including from concurrent goroutines.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// subscriber is the shared fan-out bookkeeping used by implementations.
type subscriber struct {
	collection string
	ch         chan Snapshot
}

// deliver pushes a snapshot with last-write-wins semantics: when the
// subscriber has not drained the previous snapshot yet, it is replaced
// rather than queued, so a slow consumer only ever sees the newest state.
func (s *subscriber) deliver(snap Snapshot) {
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}
}

// Marshal encodes docs of any type into the raw map shape used by
// ReplaceAll-style bulk writes.
func Marshal(docs map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(docs))
	for key, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}
