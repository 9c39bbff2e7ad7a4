package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IdentityUsage is the persisted half of an identity: daily counter and
// last-used timestamp. Sequential runs share these through sqlite.
type IdentityUsage struct {
	Index     int
	UsedToday int
	LastUsed  time.Time
}

func LoadIdentityUsage(ctx context.Context, db *sql.DB, idx int) (IdentityUsage, error) {
	u := IdentityUsage{Index: idx}
	var lastUsed string
	err := db.QueryRowContext(ctx, `
SELECT used_today, last_used FROM identity_usage WHERE idx = ?;`, idx).Scan(&u.UsedToday, &lastUsed)
	if err == sql.ErrNoRows {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("load identity usage: %w", err)
	}
	if lastUsed != "" {
		u.LastUsed, _ = time.Parse(time.RFC3339, lastUsed)
	}
	return u, nil
}

func SaveIdentityUsage(ctx context.Context, db *sql.DB, u IdentityUsage) error {
	lastUsed := ""
	if !u.LastUsed.IsZero() {
		lastUsed = u.LastUsed.UTC().Format(time.RFC3339)
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO identity_usage (idx, used_today, last_used)
VALUES (?, ?, ?)
ON CONFLICT(idx) DO UPDATE SET used_today = excluded.used_today, last_used = excluded.last_used;`,
		u.Index, u.UsedToday, lastUsed)
	if err != nil {
		return fmt.Errorf("save identity usage: %w", err)
	}
	return nil
}

func LoadRotationCursor(ctx context.Context, db *sql.DB, name string) (int, error) {
	var cursor int
	err := db.QueryRowContext(ctx, `
SELECT cursor FROM rotation_state WHERE name = ?;`, name).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load rotation cursor: %w", err)
	}
	return cursor, nil
}

func SaveRotationCursor(ctx context.Context, db *sql.DB, name string, cursor int) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO rotation_state (name, cursor)
VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET cursor = excluded.cursor;`, name, cursor)
	if err != nil {
		return fmt.Errorf("save rotation cursor: %w", err)
	}
	return nil
}
