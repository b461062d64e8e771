package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/twardoch/zmarkdown/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.ZmdError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Render is one cached render.
type Render struct {
	ID          string
	CacheKey    string
	Target      string
	OptionsKey  string
	SourceHash  string
	SourceChars int
	Payload     *Payload
	Hits        int64
	CreatedAt   int64
	AccessedAt  int64
}

// TargetStats summarizes the cache rows of one target.
type TargetStats struct {
	Target       string `json:"target"`
	Entries      int64  `json:"entries"`
	Hits         int64  `json:"hits"`
	PayloadBytes int64  `json:"payload_bytes"`
}

// Stats summarizes the render cache.
type Stats struct {
	Entries      int64         `json:"entries"`
	Hits         int64         `json:"hits"`
	PayloadBytes int64         `json:"payload_bytes"`
	OldestAccess *int64        `json:"oldest_access,omitempty"`
	NewestAccess *int64        `json:"newest_access,omitempty"`
	Targets      []TargetStats `json:"targets"`
}

// Insert stores a new render.
func Insert(db *sql.DB, r *Render) error {
	payload, err := EncodePayload(r.Payload)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO renders (
			id, cache_key, target, options_key, source_hash, source_chars,
			payload, hits, created_at, accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err = db.Exec(query,
		r.ID, r.CacheKey, r.Target, r.OptionsKey, r.SourceHash, r.SourceChars,
		payload, r.CreatedAt, r.AccessedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// Replace overwrites the payload and source fields of the render stored
// under r.CacheKey, keeping its id, hits and created_at. It returns NOT_FOUND
// when no row has that key.
func Replace(db *sql.DB, r *Render) error {
	payload, err := EncodePayload(r.Payload)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE renders
		SET target = ?, options_key = ?, source_hash = ?, source_chars = ?,
			payload = ?, accessed_at = ?
		WHERE cache_key = ?
	`

	result, err := db.Exec(query,
		r.Target, r.OptionsKey, r.SourceHash, r.SourceChars,
		payload, r.AccessedAt, r.CacheKey,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("render", r.CacheKey)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByKey retrieves a render by its cache key. Rows whose payload schema is
// stale are reported as not found.
func GetByKey(db *sql.DB, key string) (*Render, error) {
	query := `
		SELECT id, cache_key, target, options_key, source_hash, source_chars,
			payload, hits, created_at, accessed_at
		FROM renders
		WHERE cache_key = ?
	`

	var (
		r       Render
		payload []byte
	)
	err := db.QueryRow(query, key).Scan(
		&r.ID, &r.CacheKey, &r.Target, &r.OptionsKey, &r.SourceHash, &r.SourceChars,
		&payload, &r.Hits, &r.CreatedAt, &r.AccessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("render", key)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	p, ok, err := DecodePayload(payload)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if !ok {
		return nil, errors.NewNotFound("render", key)
	}
	r.Payload = p

	return &r, nil
}

// Touch records a cache hit on the render with the given id.
func Touch(db *sql.DB, id string) error {
	query := `
		UPDATE renders
		SET hits = hits + 1, accessed_at = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("render", id)
	}

	return nil
}

// Purge deletes renders last accessed before the given unix time. An empty
// target matches every target. Returns the number of rows removed.
func Purge(db *sql.DB, target string, before int64) (int64, error) {
	query := `
		DELETE FROM renders
		WHERE accessed_at < ? AND (? = '' OR target = ?)
	`

	result, err := db.Exec(query, before, target, target)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// GetStats returns per-target and overall cache counters.
func GetStats(db *sql.DB) (*Stats, error) {
	query := `
		SELECT target, COUNT(*), COALESCE(SUM(hits), 0), COALESCE(SUM(LENGTH(payload)), 0)
		FROM renders
		GROUP BY target
		ORDER BY target
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	stats := &Stats{Targets: []TargetStats{}}
	for rows.Next() {
		var ts TargetStats
		if err := rows.Scan(&ts.Target, &ts.Entries, &ts.Hits, &ts.PayloadBytes); err != nil {
			return nil, errors.NewInternal(err)
		}
		stats.Entries += ts.Entries
		stats.Hits += ts.Hits
		stats.PayloadBytes += ts.PayloadBytes
		stats.Targets = append(stats.Targets, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	var oldest, newest sql.NullInt64
	err = db.QueryRow("SELECT MIN(accessed_at), MAX(accessed_at) FROM renders").Scan(&oldest, &newest)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if oldest.Valid {
		stats.OldestAccess = &oldest.Int64
	}
	if newest.Valid {
		stats.NewestAccess = &newest.Int64
	}

	return stats, nil
}
