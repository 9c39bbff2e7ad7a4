package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Connection struct {
	ProfileURL string `json:"profileUrl"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Company    string `json:"company"`
	ImportedAt string `json:"importedAt"`
}

// InsertConnectionIgnore dedupes on profile URL (the identity of a
// connections-list entry; those rows rarely expose an email).
func InsertConnectionIgnore(ctx context.Context, db *sql.DB, c Connection) (added bool, err error) {
	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO connections (profile_url, name, title, company, imported_at)
VALUES (?, ?, ?, ?, ?);`,
		c.ProfileURL, c.Name, c.Title, c.Company, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("insert connection: %w", err)
	}

	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

func ConnectionExists(ctx context.Context, db *sql.DB, profileURL string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM connections WHERE profile_url = ? LIMIT 1;`, profileURL).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func ListConnections(ctx context.Context, db *sql.DB, limit int) ([]Connection, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := db.QueryContext(ctx, `
SELECT profile_url, name, title, company, imported_at
FROM connections ORDER BY imported_at DESC, profile_url LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ProfileURL, &c.Name, &c.Title, &c.Company, &c.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func CountConnections(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connections;`).Scan(&n)
	return n, err
}
