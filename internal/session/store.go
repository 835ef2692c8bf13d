// internal/session/store.go
//
// SQL-backed session persistence.
//
// Context
// -------
// One row per session id holds a JSON object and an absolute expiry.  The
// request package only ever reads sessions (it exposes "the active session"
// to handlers), but Save and Delete live here too so the CLI and tests can
// seed and clear rows without raw SQL.
//
// Schema (MySQL / MariaDB)
// ------------------------
//
//	CREATE TABLE session (
//	    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
//	    data       MEDIUMBLOB   NOT NULL,
//	    expires_at DATETIME(6)  NOT NULL,
//	    KEY (expires_at)
//	);
//
// Notes
// -----
//   - Concurrent loads of one id collapse into a single query through
//     singleflight, the same way the per-host loaders do.
//   - When a cache TTL is set, decoded payloads are kept in an LRU.
//   - Oxford commas, two spaces after periods.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/routing/internal/cache"
)

// ErrNotFound is returned for ids with no live row.
var ErrNotFound = errors.New("session not found")

// cacheEntries bounds the in-process payload cache.
const cacheEntries = 1024

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SQLStore reads and writes session rows.  Safe for concurrent use.
type SQLStore struct {
	db    *sqlx.DB
	table string
	ttl   time.Duration
	lru   *cache.LRU[string, map[string]any]
	sfg   singleflight.Group
	now   func() time.Time

	qLoad, qSave, qDelete string
}

// NewSQLStore binds a store to table.  cacheTTL > 0 enables the payload
// cache.
func NewSQLStore(db *sqlx.DB, table string, cacheTTL time.Duration) (*SQLStore, error) {
	if !identRE.MatchString(table) {
		return nil, fmt.Errorf("session: invalid table name %q", table)
	}
	s := &SQLStore{
		db:    db,
		table: table,
		ttl:   cacheTTL,
		now:   time.Now,

		qLoad: `SELECT data FROM ` + table + ` WHERE id = ? AND expires_at > ? LIMIT 1`,
		qSave: `INSERT INTO ` + table + ` (id, data, expires_at) VALUES (?, ?, ?) ` +
			`ON DUPLICATE KEY UPDATE data = VALUES(data), expires_at = VALUES(expires_at)`,
		qDelete: `DELETE FROM ` + table + ` WHERE id = ?`,
	}
	if cacheTTL > 0 {
		s.lru = cache.New[string, map[string]any](cacheEntries)
	}
	return s, nil
}

// Load returns a copy of the payload stored under id.
func (s *SQLStore) Load(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	if s.lru != nil {
		if data, ok := s.lru.Get(id); ok {
			return maps.Clone(data), nil
		}
	}

	v, err, _ := s.sfg.Do(id, func() (any, error) {
		var raw []byte
		if err := s.db.GetContext(ctx, &raw, s.qLoad, id, s.now()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("session load: %w", err)
		}
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("session decode %s: %w", id, err)
		}
		if s.lru != nil {
			s.lru.Add(id, data, s.ttl)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(map[string]any)), nil
}

// Save upserts data under id, live for ttl from now.
func (s *SQLStore) Save(ctx context.Context, id string, data map[string]any, ttl time.Duration) error {
	if id == "" {
		return errors.New("session: empty id")
	}
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.qSave, id, raw, s.now().Add(ttl)); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if s.lru != nil {
		s.lru.Add(id, maps.Clone(data), s.ttl)
	}
	return nil
}

// Delete removes id.  Deleting an absent id is not an error.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if s.lru != nil {
		s.lru.Remove(id)
	}
	if _, err := s.db.ExecContext(ctx, s.qDelete, id); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
