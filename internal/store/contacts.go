package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Contact struct {
	ID          int64  `json:"id"`
	TargetID    int64  `json:"targetId"`
	Company     string `json:"company"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Title       string `json:"title"`
	ContactType string `json:"contactType"`
	Department  string `json:"department"`
	Source      string `json:"source"`
	ProfileURL  string `json:"profileUrl"`
	ImportedAt  string `json:"importedAt"`
}

// ContactTypeFromTitle derives the coarse bucket the outreach templates key on.
func ContactTypeFromTitle(title string) string {
	if strings.Contains(strings.ToLower(title), "recruiter") {
		return "recruiter"
	}
	return "hiring_manager"
}

// SaveContacts persists candidates for one target in a single transaction and
// flips the target's discovery status. Email is the global dedup key; a
// candidate whose email is already stored is skipped, not an error. Returns
// how many rows were actually inserted.
func SaveContacts(ctx context.Context, db *sql.DB, targetID int64, contacts []Contact) (saved int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save contacts begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, c := range contacts {
		if strings.TrimSpace(c.Email) == "" {
			continue
		}
		ctype := c.ContactType
		if ctype == "" {
			ctype = ContactTypeFromTitle(c.Title)
		}

		// relies on UNIQUE constraint on email
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO contacts (target_id, company, name, email, title, contact_type, department, source, profile_url, imported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			targetID, c.Company, c.Name, c.Email, c.Title, ctype, c.Department, c.Source, c.ProfileURL, now,
		); err != nil {
			return 0, fmt.Errorf("insert contact: %w", err)
		}

		// SQLite doesn't report rows affected reliably with IGNORE across
		// drivers; changes() does.
		var changes int
		if e := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil && changes > 0 {
			saved++
		}
	}

	status := StatusNotFound
	if saved > 0 {
		status = StatusFound
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE targets SET contact_status = ? WHERE id = ?;`, status, targetID); err != nil {
		return 0, fmt.Errorf("update target status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save contacts commit: %w", err)
	}
	return saved, nil
}

func ContactEmailExists(ctx context.Context, db *sql.DB, email string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM contacts WHERE email = ? LIMIT 1;`, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type ListContactsOpts struct {
	TargetID int64 // 0 = all
	Limit    int
}

func ListContacts(ctx context.Context, db *sql.DB, opts ListContactsOpts) ([]Contact, error) {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}

	where := ""
	args := []any{}
	if opts.TargetID != 0 {
		where = "WHERE target_id = ?"
		args = append(args, opts.TargetID)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, target_id, company, name, email, title, contact_type, department, source, profile_url, imported_at
FROM contacts
%s
ORDER BY id DESC
LIMIT ?;
`, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(
			&c.ID, &c.TargetID, &c.Company, &c.Name, &c.Email, &c.Title,
			&c.ContactType, &c.Department, &c.Source, &c.ProfileURL, &c.ImportedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetContact(ctx context.Context, db *sql.DB, id int64) (Contact, error) {
	var c Contact
	err := db.QueryRowContext(ctx, `
SELECT id, target_id, company, name, email, title, contact_type, department, source, profile_url, imported_at
FROM contacts
WHERE id = ?;`, id).Scan(
		&c.ID, &c.TargetID, &c.Company, &c.Name, &c.Email, &c.Title,
		&c.ContactType, &c.Department, &c.Source, &c.ProfileURL, &c.ImportedAt,
	)
	if err != nil {
		return Contact{}, fmt.Errorf("get contact %d: %w", id, err)
	}
	return c, nil
}

func CountContacts(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts;`).Scan(&n)
	return n, err
}
