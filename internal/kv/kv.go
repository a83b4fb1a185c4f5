// Package kv is a versioned key-value store on top of database/sql.
//
// Every key carries a version that starts at 1 and grows by one on each
// write. Writers that read a value and want to replace it use SetIfVersion,
// which fails with ErrConflict when another writer got there first. Keys may
// carry an expiry; expired keys read as absent and are purged
// opportunistically.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a key is absent or expired.
	ErrNotFound = errors.New("kv: key not found")
	// ErrConflict is returned when a conditional write loses a race.
	ErrConflict = errors.New("kv: version conflict")
)

// KeepTTL keeps a key's current expiry on write.
const KeepTTL time.Duration = -1

// maxSetAttempts bounds the retry loop of unconditional writes.
const maxSetAttempts = 5

// Entry is one stored value.
type Entry struct {
	Key       string
	Value     []byte
	Version   int64
	ExpiresAt time.Time // zero when the key does not expire
}

func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store reads and writes keys in the kv table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store backed by db. The kv table must exist.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock replaces the store's time source. Used by tests to move expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Get returns the live entry for key or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	e, err := s.physical(ctx, key)
	if err != nil {
		return nil, err
	}
	if e == nil || e.expired(s.now()) {
		return nil, ErrNotFound
	}
	return e, nil
}

// Set writes value under key regardless of its current version and returns
// the new version. A ttl of zero means the key never expires.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (int64, error) {
	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		version, err := s.write(ctx, key, value, ttl, -1)
		if errors.Is(err, ErrConflict) {
			continue
		}
		return version, err
	}
	return 0, fmt.Errorf("setting %s: %w", key, ErrConflict)
}

// SetIfVersion writes value only if the live version of key equals version.
// A version of zero requires the key to be absent (or expired).
func (s *Store) SetIfVersion(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (int64, error) {
	if version < 0 {
		return 0, fmt.Errorf("invalid version %d", version)
	}
	return s.write(ctx, key, value, ttl, version)
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Scan returns all live entries whose key starts with prefix, ordered by key.
func (s *Store) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k, v, version, expires_at FROM kv
		 WHERE k LIKE ? ESCAPE '!' AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY k`,
		escapeLike(prefix)+"%", toMillis(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", prefix, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var expires sql.NullInt64
		if err := rows.Scan(&e.Key, &e.Value, &e.Version, &expires); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if expires.Valid {
			e.ExpiresAt = fromMillis(expires.Int64)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeExpired deletes expired keys and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, toMillis(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("purging expired keys: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetJSON decodes the value of key into dst and returns its version.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (int64, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", key, err)
	}
	return e.Version, nil
}

// SetJSON encodes v and writes it under key unconditionally.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// SetJSONIfVersion encodes v and writes it under key if version matches.
func (s *Store) SetJSONIfVersion(ctx context.Context, key string, v any, version int64, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.SetIfVersion(ctx, key, data, version, ttl)
}

// physical returns the stored row for key, expired or not, or nil.
func (s *Store) physical(ctx context.Context, key string) (*Entry, error) {
	e := &Entry{Key: key}
	var expires sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT v, version, expires_at FROM kv WHERE k = ?`, key,
	).Scan(&e.Value, &e.Version, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	if expires.Valid {
		e.ExpiresAt = fromMillis(expires.Int64)
	}
	return e, nil
}

// write stores value under key. expect is the required live version, or -1
// to accept any.
func (s *Store) write(ctx context.Context, key string, value []byte, ttl time.Duration, expect int64) (int64, error) {
	now := s.now()

	row, err := s.physical(ctx, key)
	if err != nil {
		return 0, err
	}
	live := row != nil && !row.expired(now)

	if expect >= 0 {
		var current int64
		if live {
			current = row.Version
		}
		if current != expect {
			return 0, ErrConflict
		}
	}

	var expires sql.NullInt64
	switch {
	case ttl > 0:
		expires = sql.NullInt64{Int64: toMillis(now.Add(ttl)), Valid: true}
	case ttl == KeepTTL && live && !row.ExpiresAt.IsZero():
		expires = sql.NullInt64{Int64: toMillis(row.ExpiresAt), Valid: true}
	}

	if row == nil {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv (k, v, version, expires_at, updated_at) VALUES (?, ?, 1, ?, ?)`,
			key, value, expires, toMillis(now),
		)
		if err != nil {
			// Another writer may have inserted the key in the meantime.
			if existing, getErr := s.physical(ctx, key); getErr == nil && existing != nil {
				return 0, ErrConflict
			}
			return 0, fmt.Errorf("inserting %s: %w", key, err)
		}
		if ttl > 0 {
			s.purgeQuietly(ctx)
		}
		return 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE kv SET v = ?, version = version + 1, expires_at = ?, updated_at = ?
		 WHERE k = ? AND version = ?`,
		value, expires, toMillis(now), key, row.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", key, err)
	}
	if n == 0 {
		return 0, ErrConflict
	}
	if ttl > 0 {
		s.purgeQuietly(ctx)
	}
	return row.Version + 1, nil
}

// purgeQuietly opportunistically cleans up expired keys.
func (s *Store) purgeQuietly(ctx context.Context) {
	_, _ = s.PurgeExpired(ctx)
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
