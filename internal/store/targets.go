package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Discovery status lifecycle on a target.
const (
	StatusPending  = "pending"
	StatusFound    = "found"
	StatusNotFound = "not_found"
)

type Target struct {
	ID            int64  `json:"id"`
	Company       string `json:"company"`
	CompanyDomain string `json:"companyDomain"`
	Department    string `json:"department"`
	JobTitle      string `json:"jobTitle"`
	Description   string `json:"description"`
	SourceID      string `json:"sourceId"`
	ContactStatus string `json:"contactStatus"`
	CreatedAt     string `json:"createdAt"`
}

type TargetInsert struct {
	Company       string
	CompanyDomain string
	Department    string
	JobTitle      string
	Description   string
	SourceID      string
}

// InsertTargetIgnore dedupes on source_id (unique where non-empty) so the
// same ingested job never creates two targets.
func InsertTargetIgnore(ctx context.Context, db *sql.DB, t TargetInsert) (added bool, err error) {
	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO targets (company, company_domain, department, job_title, description, source_id, contact_status, created_at)
VALUES (?, ?, ?, ?, ?, ?, 'pending', ?);`,
		t.Company, t.CompanyDomain, t.Department, t.JobTitle, t.Description, t.SourceID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert target: %w", err)
	}

	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

type ListTargetsOpts struct {
	Status string // pending | found | not_found | "" (all)
	Limit  int
}

func ListTargets(ctx context.Context, db *sql.DB, opts ListTargetsOpts) ([]Target, error) {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}

	where := ""
	args := []any{}
	if opts.Status != "" {
		where = "WHERE contact_status = ?"
		args = append(args, opts.Status)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, company, company_domain, department, job_title, description, source_id, contact_status, created_at
FROM targets
%s
ORDER BY id ASC
LIMIT ?;
`, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(
			&t.ID, &t.Company, &t.CompanyDomain, &t.Department, &t.JobTitle,
			&t.Description, &t.SourceID, &t.ContactStatus, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func GetTarget(ctx context.Context, db *sql.DB, id int64) (Target, error) {
	var t Target
	err := db.QueryRowContext(ctx, `
SELECT id, company, company_domain, department, job_title, description, source_id, contact_status, created_at
FROM targets
WHERE id = ?;`, id).Scan(
		&t.ID, &t.Company, &t.CompanyDomain, &t.Department, &t.JobTitle,
		&t.Description, &t.SourceID, &t.ContactStatus, &t.CreatedAt,
	)
	if err != nil {
		return Target{}, fmt.Errorf("get target %d: %w", id, err)
	}
	return t, nil
}

func SetTargetStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	_, err := db.ExecContext(ctx, `
UPDATE targets SET contact_status = ? WHERE id = ?;`, status, id)
	if err != nil {
		return fmt.Errorf("set target status: %w", err)
	}
	return nil
}
