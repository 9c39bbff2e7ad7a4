package discover

import (
	"context"
	"database/sql"

	"autopilot-engine/internal/store"
)

// UsageStore persists per-identity daily counters and rotation cursors so
// caps survive restarts. Backends hold this instead of a raw DB handle.
type UsageStore interface {
	LoadIdentityUsage(ctx context.Context, idx int) (store.IdentityUsage, error)
	SaveIdentityUsage(ctx context.Context, u store.IdentityUsage) error
	LoadRotationCursor(ctx context.Context, name string) (int, error)
	SaveRotationCursor(ctx context.Context, name string, cursor int) error
}

// DBUsage is the sqlite-backed UsageStore.
type DBUsage struct {
	DB *sql.DB
}

func (d DBUsage) LoadIdentityUsage(ctx context.Context, idx int) (store.IdentityUsage, error) {
	return store.LoadIdentityUsage(ctx, d.DB, idx)
}

func (d DBUsage) SaveIdentityUsage(ctx context.Context, u store.IdentityUsage) error {
	return store.SaveIdentityUsage(ctx, d.DB, u)
}

func (d DBUsage) LoadRotationCursor(ctx context.Context, name string) (int, error) {
	return store.LoadRotationCursor(ctx, d.DB, name)
}

func (d DBUsage) SaveRotationCursor(ctx context.Context, name string, cursor int) error {
	return store.SaveRotationCursor(ctx, d.DB, name, cursor)
}
