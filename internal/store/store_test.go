package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func waitSnapshot(t *testing.T, c <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-c:
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, CollectionSpares, "ups", testDoc{Name: "UPS", Qty: 2}))

	raw, err := m.Get(ctx, CollectionSpares, "ups")
	require.NoError(t, err)
	var doc testDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, testDoc{Name: "UPS", Qty: 2}, doc)

	// upsert with the same key updates in place
	require.NoError(t, m.Put(ctx, CollectionSpares, "ups", testDoc{Name: "UPS", Qty: 3}))
	all, err := m.GetAll(ctx, CollectionSpares)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assert.ErrorIs(t, m.Delete(ctx, CollectionSpares, "missing"), ErrNotFound)

	require.NoError(t, m.Put(ctx, CollectionSpares, "ups", testDoc{Name: "UPS"}))
	require.NoError(t, m.Delete(ctx, CollectionSpares, "ups"))
	_, err := m.Get(ctx, CollectionSpares, "ups")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySubscribeDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, CollectionAssets, "1", testDoc{Name: "one"}))

	sub, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := waitSnapshot(t, sub.C)
	assert.Equal(t, CollectionAssets, snap.Collection)
	assert.Len(t, snap.Docs, 1)
}

func TestMemorySubscribeObservesWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := waitSnapshot(t, sub.C)
	assert.Empty(t, snap.Docs)

	require.NoError(t, m.Put(ctx, CollectionAssets, "1", testDoc{Name: "one"}))
	snap = waitSnapshot(t, sub.C)
	assert.Len(t, snap.Docs, 1)

	require.NoError(t, m.Delete(ctx, CollectionAssets, "1"))
	snap = waitSnapshot(t, sub.C)
	assert.Empty(t, snap.Docs)
}

func TestMemorySubscribeLastSnapshotWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	// a slow consumer never drains; only the newest snapshot remains
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Put(ctx, CollectionAssets, "1", testDoc{Qty: i}))
	}

	var last Snapshot
	for {
		select {
		case snap := <-sub.C:
			last = snap
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	var doc testDoc
	require.NoError(t, json.Unmarshal(last.Docs["1"], &doc))
	assert.Equal(t, 4, doc.Qty)
}

func TestMemorySubscriptionIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	assets, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	defer assets.Unsubscribe()
	spares, err := m.Subscribe(ctx, CollectionSpares)
	require.NoError(t, err)
	defer spares.Unsubscribe()

	waitSnapshot(t, assets.C)
	waitSnapshot(t, spares.C)

	require.NoError(t, m.Put(ctx, CollectionSpares, "ups", testDoc{Name: "UPS"}))
	snap := waitSnapshot(t, spares.C)
	assert.Equal(t, CollectionSpares, snap.Collection)

	// the assets subscriber must not have received anything
	select {
	case snap := <-assets.C:
		t.Fatalf("unexpected snapshot on assets feed: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	waitSnapshot(t, sub.C)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, ok := <-sub.C
	assert.False(t, ok)

	// writes after unsubscribe do not panic
	require.NoError(t, m.Put(ctx, CollectionAssets, "1", testDoc{}))
}

func TestUnsubscribeConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.Subscribe(ctx, CollectionAssets)
	require.NoError(t, err)
	waitSnapshot(t, sub.C)

	// both pumps of a websocket connection tear down the same
	// subscription when the peer disconnects
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestReplaceAllOverwritesCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, CollectionSpares, "old", testDoc{Name: "old"}))

	require.NoError(t, m.ReplaceAll(ctx, CollectionSpares, map[string]any{
		"a": testDoc{Name: "a"},
		"b": testDoc{Name: "b"},
	}))

	all, err := m.GetAll(ctx, CollectionSpares)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_, err = m.Get(ctx, CollectionSpares, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}
