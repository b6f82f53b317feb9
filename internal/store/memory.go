package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store used by tests and local development. It
// honors the same snapshot-broadcast contract as the Postgres store.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage
	subs map[*subscriber]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]json.RawMessage),
		subs: make(map[*subscriber]struct{}),
	}
}

func (m *Memory) GetAll(_ context.Context, collection string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(collection), nil
}

func (m *Memory) Get(_ context.Context, collection, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) Put(_ context.Context, collection, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][key] = raw
	m.broadcastLocked(collection)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][key]; !ok {
		return ErrNotFound
	}
	delete(m.data[collection], key)
	m.broadcastLocked(collection)
	return nil
}

func (m *Memory) ReplaceAll(_ context.Context, collection string, docs map[string]any) error {
	raw, err := Marshal(docs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[collection] = raw
	m.broadcastLocked(collection)
	return nil
}

func (m *Memory) Subscribe(_ context.Context, collection string) (*Subscription, error) {
	sub := &subscriber{
		collection: collection,
		ch:         make(chan Snapshot, 1),
	}

	m.mu.Lock()
	sub.ch <- Snapshot{Collection: collection, Docs: m.snapshotLocked(collection)}
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[sub]; ok {
				delete(m.subs, sub)
				close(sub.ch)
			}
		},
	}, nil
}

func (m *Memory) snapshotLocked(collection string) map[string]json.RawMessage {
	docs := make(map[string]json.RawMessage, len(m.data[collection]))
	for key, doc := range m.data[collection] {
		docs[key] = doc
	}
	return docs
}

func (m *Memory) broadcastLocked(collection string) {
	snap := Snapshot{Collection: collection, Docs: m.snapshotLocked(collection)}
	for sub := range m.subs {
		if sub.collection == collection {
			sub.deliver(snap)
		}
	}
}
