package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"autopilot-engine/internal/browser"
	"autopilot-engine/internal/compose"
	"autopilot-engine/internal/config"
	"autopilot-engine/internal/discover"
	"autopilot-engine/internal/discover/apollo"
	"autopilot-engine/internal/discover/linkedin"
	"autopilot-engine/internal/events"
	"autopilot-engine/internal/httpapi"
	"autopilot-engine/internal/identity"
	"autopilot-engine/internal/ingest"
	"autopilot-engine/internal/scheduler"
	"autopilot-engine/internal/secrets"
	"autopilot-engine/internal/session"
	"autopilot-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the desktop shell passes one),
	// else local folder.
	dataDir := os.Getenv("AUTOPILOT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir; a second instance would fight over the
	// browser profile and the usage counters.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running against %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	db, err := store.Open(filepath.Join(dataDir, "autopilot.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	prompter := session.NewSignalPrompter()

	discoverStatus := &atomic.Value{}
	discoverStatus.Store(httpapi.DiscoverStatus{State: string(discover.StateIdle)})

	personalizer := buildPersonalizer(cfg)

	deps := httpapi.Deps{
		DB:             db.Pool,
		Hub:            hub,
		CfgVal:         &cfgVal,
		DiscoverStatus: discoverStatus,
		UserCfgPath:    userCfgPath,
		LoadCfg:        loadCfg,
		RunDiscovery: func(ctx context.Context, source string, opts discover.RunOpts) (discover.RunResult, error) {
			cfg := cfgVal.Load().(config.Config)
			return runDiscovery(ctx, cfg, db, hub, prompter, discoverStatus, dataDir, source, opts)
		},
		Resume: prompter.Resume,
		RunIngest: func(ctx context.Context) (int, error) {
			cfg := cfgVal.Load().(config.Config)
			return ingest.RunOnce(ctx, db.Pool, cfg, hub)
		},
		SyncConnections: func(ctx context.Context) (int, error) {
			cfg := cfgVal.Load().(config.Config)
			return syncConnections(ctx, cfg, db, dataDir, prompter)
		},
		FetchProfile: func(ctx context.Context, profileURL string) (string, error) {
			cfg := cfgVal.Load().(config.Config)
			return fetchProfile(ctx, cfg, db, dataDir, prompter, profileURL)
		},
		Personalizer: personalizer,
	}

	mux := httpapi.NewMux(deps)

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}

	port := cfg.App.Port
	if port == 0 {
		port = 38471
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.Cors,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)
	log.Printf("shutdown token: %s", token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	// Mailbox-ingestion lane: only ticks when email is enabled.
	if cfg.Email.Enabled {
		interval := time.Duration(cfg.Email.PollSeconds) * time.Second
		if interval <= 0 {
			interval = 15 * time.Minute
		}
		g.Go(func() error {
			scheduler.Every(gctx, interval, "ingest", func(tctx context.Context) error {
				cfg := cfgVal.Load().(config.Config)
				_, err := ingest.RunOnce(tctx, db.Pool, cfg, hub)
				return err
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

// runDiscovery builds the whole browser-to-database pipeline for one batch
// and tears it down when the batch ends.
func runDiscovery(
	ctx context.Context,
	cfg config.Config,
	db *store.DB,
	hub *events.Hub,
	prompter *session.SignalPrompter,
	status *atomic.Value,
	dataDir, source string,
	opts discover.RunOpts,
) (discover.RunResult, error) {
	drv, err := browser.New(ctx, browser.Options{
		Headless:   cfg.Browser.Headless,
		ChromePath: cfg.Browser.ChromePath,
	})
	if err != nil {
		return discover.RunResult{}, err
	}
	defer drv.Close()

	onState := httpapi.OnStateChange(status, hub)

	// While a run is parked on the prompter the status endpoint must say
	// so; that's the operator's cue to intervene and hit /discover/resume.
	waiting := &statePrompter{inner: prompter, onState: onState}

	usage := discover.DBUsage{DB: db.Pool}

	var backend discover.Backend
	switch source {
	case "apollo":
		backend = &apollo.Backend{
			Browser:  drv,
			Quota:    identity.NewQuota(cfg.Apollo.DailyCap),
			Store:    usage,
			Prompter: waiting,
		}
	case "linkedin":
		backend, err = newLinkedInBackend(ctx, cfg, drv, db, dataDir, waiting)
		if err != nil {
			return discover.RunResult{}, err
		}
	default:
		return discover.RunResult{}, fmt.Errorf("unknown source %q", source)
	}

	if opts.Limit <= 0 {
		opts.Limit = cfg.Discovery.MaxTargetsPerRun
	}

	runner := &discover.Runner{
		DB:      db.Pool,
		Hub:     hub,
		Backend: backend,
		Extractor: &discover.Extractor{
			Source:   source,
			MaxRows:  cfg.Discovery.MaxRowsPerTarget,
			MinDelay: time.Duration(cfg.Discovery.MinDelaySeconds) * time.Second,
			MaxDelay: time.Duration(cfg.Discovery.MaxDelaySeconds) * time.Second,
		},
		OnState: onState,
	}
	return runner.Run(ctx, opts)
}

// newLinkedInBackend wires the rotator, cookie jars, credentials lookup and
// persisted usage counters around one browser session.
func newLinkedInBackend(
	ctx context.Context,
	cfg config.Config,
	drv *browser.Driver,
	db *store.DB,
	dataDir string,
	prompter session.Prompter,
) (*linkedin.Backend, error) {
	usage := discover.DBUsage{DB: db.Pool}

	ids := make([]*identity.Identity, 0, len(cfg.LinkedIn.Identities))
	for i, ic := range cfg.LinkedIn.Identities {
		ids = append(ids, &identity.Identity{Index: i, Email: ic.Email, DailyCap: ic.DailyCap})
	}
	cursor, err := usage.LoadRotationCursor(ctx, "linkedin")
	if err != nil {
		return nil, err
	}
	creds := func(email string) (string, error) {
		for i, ic := range cfg.LinkedIn.Identities {
			if ic.Email == email {
				return secrets.Get(secrets.IdentityAccount(i, email))
			}
		}
		return "", fmt.Errorf("no configured identity for %s", email)
	}
	return &linkedin.Backend{
		Browser:  drv,
		Rotator:  identity.NewRotator(ids, cursor),
		Sessions: session.NewManager(dataDir, creds, prompter),
		Store:    usage,
	}, nil
}

// syncConnections imports the signed-in identity's first-degree connections.
// It reuses the discovery auth path but never counts against the daily cap;
// reading your own list is not a search.
func syncConnections(
	ctx context.Context,
	cfg config.Config,
	db *store.DB,
	dataDir string,
	prompter session.Prompter,
) (int, error) {
	drv, err := browser.New(ctx, browser.Options{
		Headless:   cfg.Browser.Headless,
		ChromePath: cfg.Browser.ChromePath,
	})
	if err != nil {
		return 0, err
	}
	defer drv.Close()

	backend, err := newLinkedInBackend(ctx, cfg, drv, db, dataDir, prompter)
	if err != nil {
		return 0, err
	}
	if err := backend.EnsureReady(ctx); err != nil {
		return 0, err
	}
	return backend.SyncConnections(ctx, linkedin.DBConnections{DB: db.Pool})
}

// fetchProfile grabs a profile page's visible text for compose deep dives.
func fetchProfile(
	ctx context.Context,
	cfg config.Config,
	db *store.DB,
	dataDir string,
	prompter session.Prompter,
	profileURL string,
) (string, error) {
	drv, err := browser.New(ctx, browser.Options{
		Headless:   cfg.Browser.Headless,
		ChromePath: cfg.Browser.ChromePath,
	})
	if err != nil {
		return "", err
	}
	defer drv.Close()

	// Profiles behind LinkedIn auth need a signed-in session first.
	if strings.Contains(profileURL, "linkedin.com") {
		backend, err := newLinkedInBackend(ctx, cfg, drv, db, dataDir, prompter)
		if err != nil {
			return "", err
		}
		if err := backend.EnsureReady(ctx); err != nil {
			return "", err
		}
	}

	if err := drv.Navigate(ctx, profileURL); err != nil {
		return "", err
	}
	drv.Sleep(ctx, 2*time.Second, 4*time.Second)
	return drv.Snapshot(ctx)
}

func buildPersonalizer(cfg config.Config) compose.Personalizer {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		log.Printf("[compose] OPENAI_API_KEY not set, using template drafts")
		return compose.Template{}
	}
	return compose.NewOpenAI(key, cfg.Compose.Model)
}
