package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// notifyChannel is the Postgres LISTEN/NOTIFY channel carrying the name of
// the collection that changed.
const notifyChannel = "documents_changed"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
);
`

// Postgres implements Store on top of a documents table. Every write sends
// a NOTIFY in the same transaction; a single listener connection fans the
// resulting snapshots out to in-process subscribers.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	cancel context.CancelFunc
}

// NewPostgres wraps a pgx pool. The caller owns the pool's lifetime.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Postgres{
		pool:   pool,
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
		cancel: cancel,
	}
	go p.listen(ctx)
	return p
}

// Migrate applies the document-store schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply documents schema: %w", err)
	}
	return nil
}

// Close stops the notification listener. In-flight subscriptions keep
// their channels open until unsubscribed.
func (p *Postgres) Close() {
	p.cancel()
}

func (p *Postgres) GetAll(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, doc FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("load collection %q: %w", collection, err)
	}
	defer rows.Close()

	docs := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var doc []byte
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, err
		}
		docs[key] = json.RawMessage(doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND key = $2`,
		collection, key).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (p *Postgres) Put(ctx context.Context, collection, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (collection, key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, key, raw)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Delete(ctx context.Context, collection, key string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ReplaceAll(ctx context.Context, collection string, docs map[string]any) error {
	raw, err := Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1`, collection); err != nil {
		return err
	}
	for key, doc := range raw {
		if _, err := tx.Exec(ctx, `
			INSERT INTO documents (collection, key, doc) VALUES ($1, $2, $3)
		`, collection, key, []byte(doc)); err != nil {
			return fmt.Errorf("insert %s/%s: %w", collection, key, err)
		}
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Subscribe(ctx context.Context, collection string) (*Subscription, error) {
	docs, err := p.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		collection: collection,
		ch:         make(chan Snapshot, 1),
	}
	sub.ch <- Snapshot{Collection: collection, Docs: docs}

	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[sub]; ok {
				delete(p.subs, sub)
				close(sub.ch)
			}
		},
	}, nil
}

// listen holds one dedicated connection on the notify channel and pushes a
// fresh snapshot to every matching subscriber whenever a collection
// changes. Connection failures back off and re-listen.
func (p *Postgres) listen(ctx context.Context) {
	for {
		if err := p.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("store listener disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (p *Postgres) listenOnce(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		p.broadcast(ctx, notification.Payload)
	}
}

func (p *Postgres) broadcast(ctx context.Context, collection string) {
	if !p.hasSubscribers(collection) {
		return
	}
	docs, err := p.GetAll(ctx, collection)
	if err != nil {
		p.logger.Warn("store snapshot reload failed",
			zap.String("collection", collection), zap.Error(err))
		return
	}
	snap := Snapshot{Collection: collection, Docs: docs}

	p.mu.Lock()
	defer p.mu.Unlock()
	for sub := range p.subs {
		if sub.collection == collection {
			sub.deliver(snap)
		}
	}
}

func (p *Postgres) hasSubscribers(collection string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for sub := range p.subs {
		if sub.collection == collection {
			return true
		}
	}
	return false
}
