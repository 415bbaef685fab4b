// Package catalog is the free-form product catalog kept from the first
// iteration of the application. Items are arbitrary JSON objects with a
// server-assigned integer id, stored in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultDSN is a process-wide in-memory database.
const DefaultDSN = "file:catalog?mode=memory&cache=shared"

// ErrNotFound is returned for an unknown item id.
var ErrNotFound = eris.New("catalog: entry not found")

// Item is one catalog entry. The "id" key is owned by the store.
type Item map[string]any

// ID returns the item's id, or 0 when unset.
func (it Item) ID() int64 {
	id, _ := it["id"].(int64)
	return id
}

// Store implements the catalog on modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the catalog database and applies its schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open")
	}
	// A shared in-memory database lives as long as one connection does.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "catalog: exec %s", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return eris.Wrap(err, "catalog: migrate")
}

// Close releases the database. An in-memory catalog is discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every item in id order.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM catalog_items ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: list")
	}
	defer rows.Close() //nolint:errcheck

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate")
	}
	return items, nil
}

// Get returns one item or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Item, error) {
	return get(ctx, s.db, id)
}

// Create stores a new item and returns it with its assigned id. Any
// client-supplied id is ignored.
func (s *Store) Create(ctx context.Context, body Item) (Item, error) {
	data, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO catalog_items (body) VALUES (?)`, data)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: insert")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: last insert id")
	}

	out := withID(body, id)
	zap.L().Debug("catalog item created", zap.Int64("id", id))
	return out, nil
}

// Update merges the submitted fields over the stored ones. Fields not in
// patch are kept; the id cannot change.
func (s *Store) Update(ctx context.Context, id int64, patch Item) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: begin update")
	}
	defer tx.Rollback() //nolint:errcheck

	current, err := get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		current[k] = v
	}

	data, err := encodeBody(current)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE catalog_items SET body = ?, updated_at = datetime('now') WHERE id = ?`, data, id,
	); err != nil {
		return nil, eris.Wrapf(err, "catalog: update %d", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "catalog: commit update")
	}
	return withID(current, id), nil
}

// Delete removes an item and returns what was stored.
func (s *Store) Delete(ctx context.Context, id int64) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: begin delete")
	}
	defer tx.Rollback() //nolint:errcheck

	it, err := get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = ?`, id); err != nil {
		return nil, eris.Wrapf(err, "catalog: delete %d", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "catalog: commit delete")
	}
	return it, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_items`).Scan(&n)
	return n, eris.Wrap(err, "catalog: count")
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scannable interface {
	Scan(dest ...any) error
}

func get(ctx context.Context, q queryer, id int64) (Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, `SELECT id, body FROM catalog_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "catalog: item %d", id)
	}
	return it, err
}

func scanItem(row scannable) (Item, error) {
	var (
		id   int64
		body string
	)
	if err := row.Scan(&id, &body); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "catalog: scan item")
	}

	it := Item{}
	if err := json.Unmarshal([]byte(body), &it); err != nil {
		return nil, eris.Wrapf(err, "catalog: decode item %d", id)
	}
	it["id"] = id
	return it, nil
}

// encodeBody serializes an item without its id.
func encodeBody(it Item) (string, error) {
	body := make(Item, len(it))
	for k, v := range it {
		if k != "id" {
			body[k] = v
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "catalog: encode item")
	}
	return string(data), nil
}

func withID(it Item, id int64) Item {
	out := make(Item, len(it)+1)
	for k, v := range it {
		out[k] = v
	}
	out["id"] = id
	return out
}
