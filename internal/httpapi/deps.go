package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"autopilot-engine/internal/compose"
	"autopilot-engine/internal/config"
	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal         *atomic.Value // stores config.Config
	DiscoverStatus *atomic.Value // stores httpapi.DiscoverStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Discovery entrypoints (injected for testability)
	RunDiscovery func(ctx context.Context, source string, opts discover.RunOpts) (discover.RunResult, error)
	Resume       func() bool

	// Email-ingestion entrypoint
	RunIngest func(ctx context.Context) (added int, err error)

	// Connections import entrypoint (nil when no identities are configured)
	SyncConnections func(ctx context.Context) (added int, err error)

	// Profile deep-dive: fetch a profile page's text for the personalizer.
	FetchProfile func(ctx context.Context, profileURL string) (string, error)

	Personalizer compose.Personalizer
}
