package discover

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"autopilot-engine/internal/events"
	"autopilot-engine/internal/store"
)

// Run states. AwaitingOperator is entered while a backend is blocked on a
// human completing a login or verification challenge.
type State string

const (
	StateIdle             State = "idle"
	StateAuthenticating   State = "authenticating"
	StateDiscovering      State = "discovering"
	StateAwaitingOperator State = "awaiting_operator"
	StateDone             State = "done"
)

// RunResult summarizes one orchestrated batch. Created fresh per run.
type RunResult struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Found     int    `json:"found"`
	NotFound  int    `json:"not_found"`
	Errors    int    `json:"errors"`
	Exhausted bool   `json:"exhausted"`
}

// Backend is one site-specific discovery automation (Apollo, LinkedIn).
type Backend interface {
	Name() string

	// EnsureReady makes sure an under-cap identity holds an authenticated
	// session, rotating identities when needed. ErrExhausted means no
	// capacity remains today; ErrAuth means login could not be completed.
	EnsureReady(ctx context.Context) error

	// Search loads the results page for one target.
	Search(ctx context.Context, t store.Target) (ResultsPage, error)

	// RecordUse charges one discovery attempt to the active identity.
	RecordUse(ctx context.Context) error
}

type RunOpts struct {
	// TargetID pins a single target, bypassing the pending-status filter.
	// Used for manual re-processing.
	TargetID int64
	Limit    int
}

type Runner struct {
	DB        *sql.DB
	Hub       *events.Hub
	Backend   Backend
	Extractor *Extractor

	// OnState, when set, receives every state transition (status endpoint).
	OnState func(State, string)

	// PauseFn overrides the inter-target delay. Tests set it to a no-op.
	PauseFn func(context.Context)
}

func (r *Runner) setState(s State, detail string) {
	if r.OnState != nil {
		r.OnState(s, detail)
	}
}

// Run drives one batch: authenticate, then discover contacts target by
// target until the batch, the daily capacity, or the context runs out.
// Only authentication failure surfaces as an error; everything else lands
// in the counters.
func (r *Runner) Run(ctx context.Context, opts RunOpts) (RunResult, error) {
	res := RunResult{RunID: uuid.NewString()}
	name := r.Backend.Name()

	defer r.setState(StateDone, "")

	targets, err := r.loadBatch(ctx, opts)
	if err != nil {
		return res, fmt.Errorf("load batch: %w", err)
	}
	if len(targets) == 0 {
		log.Printf("[%s] no pending targets", name)
		return res, nil
	}
	log.Printf("[%s] run %s: %d target(s)", name, res.RunID, len(targets))

	r.setState(StateAuthenticating, "")
	if err := r.Backend.EnsureReady(ctx); err != nil {
		if errors.Is(err, ErrExhausted) {
			res.Exhausted = true
			return res, nil
		}
		return res, fmt.Errorf("%s: %w", name, err)
	}

	for _, target := range targets {
		// cancellation is checked between targets only; an in-flight
		// extraction is abandoned with its partial contacts
		if ctx.Err() != nil {
			log.Printf("[%s] run interrupted after %d target(s)", name, res.Processed)
			break
		}

		// mid-run rotation: the active identity may have just hit its cap
		if err := r.Backend.EnsureReady(ctx); err != nil {
			if errors.Is(err, ErrExhausted) {
				log.Printf("[%s] capacity exhausted, stopping early", name)
				res.Exhausted = true
				break
			}
			log.Printf("[%s] re-auth failed: %v", name, err)
			break
		}

		r.setState(StateDiscovering, target.Company)
		if err := r.processTarget(ctx, target, &res); err != nil {
			log.Printf("[%s] error processing target %d: %v", name, target.ID, err)
			res.Errors++
		}

		if err := r.Backend.RecordUse(ctx); err != nil {
			log.Printf("[%s] usage accounting: %v", name, err)
		}

		r.pause(ctx)
	}

	log.Printf("[%s] run %s done: processed=%d found=%d not_found=%d errors=%d",
		name, res.RunID, res.Processed, res.Found, res.NotFound, res.Errors)
	return res, nil
}

func (r *Runner) loadBatch(ctx context.Context, opts RunOpts) ([]store.Target, error) {
	if opts.TargetID != 0 {
		target, err := store.GetTarget(ctx, r.DB, opts.TargetID)
		if err != nil {
			return nil, err
		}
		log.Printf("[%s] pinned target %d (%s)", r.Backend.Name(), target.ID, target.Company)
		return []store.Target{target}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}
	return store.ListTargets(ctx, r.DB, store.ListTargetsOpts{
		Status: store.StatusPending,
		Limit:  limit,
	})
}

func (r *Runner) processTarget(ctx context.Context, target store.Target, res *RunResult) error {
	page, err := r.Backend.Search(ctx, target)
	if err != nil {
		return fmt.Errorf("search %q: %w", target.Company, err)
	}

	contacts := r.Extractor.Extract(ctx, target, page)

	saved, err := store.SaveContacts(ctx, r.DB, target.ID, contacts)
	if err != nil {
		return fmt.Errorf("save contacts: %w", err)
	}

	res.Processed++
	if saved > 0 {
		res.Found++
		r.publish(events.TypeContactsFound, map[string]any{
			"target_id": target.ID, "company": target.Company, "saved": saved,
		})
	} else {
		res.NotFound++
	}
	return nil
}

func (r *Runner) publish(typ string, data any) {
	if r.Hub != nil {
		r.Hub.Publish(events.MakeEvent("", typ, 1, data))
	}
}

// pause sleeps 5-10s between targets.
func (r *Runner) pause(ctx context.Context) {
	if r.PauseFn != nil {
		r.PauseFn(ctx)
		return
	}
	d := 5*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
