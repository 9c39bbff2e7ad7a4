package linkedin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"autopilot-engine/internal/snapshot"
	"autopilot-engine/internal/store"
)

// ConnectionStore is the persistence slice the import needs.
type ConnectionStore interface {
	InsertConnectionIgnore(ctx context.Context, c store.Connection) (bool, error)
}

// DBConnections adapts the sqlite store to ConnectionStore.
type DBConnections struct {
	DB *sql.DB
}

func (d DBConnections) InsertConnectionIgnore(ctx context.Context, c store.Connection) (bool, error) {
	return store.InsertConnectionIgnore(ctx, d.DB, c)
}

// maxScrollPasses bounds the import regardless of list length.
const maxScrollPasses = 40

// SyncConnections walks the infinite-scroll connections list and imports
// every entry not yet known. The caller must have called EnsureReady first.
// It stops after three consecutive scroll passes yield nothing new, the
// list's end-of-data signal.
func (b *Backend) SyncConnections(ctx context.Context, cs ConnectionStore) (int, error) {
	if err := b.Browser.Navigate(ctx, connectionsURL); err != nil {
		return 0, err
	}
	b.Browser.Sleep(ctx, 3*time.Second, 5*time.Second)

	added := 0
	emptyStreak := 0
	for pass := 0; pass < maxScrollPasses && emptyStreak < 3; pass++ {
		if err := ctx.Err(); err != nil {
			return added, err
		}

		for i := 0; i < 5; i++ {
			if err := b.Browser.ScrollBy(ctx, 800); err != nil {
				return added, err
			}
			b.Browser.Sleep(ctx, 500*time.Millisecond, time.Second)
		}

		var dump string
		if err := b.Browser.Evaluate(ctx, dumpJS, &dump); err != nil {
			return added, err
		}

		newThisPass, err := b.importDump(ctx, cs, dump)
		if err != nil {
			return added, err
		}
		added += newThisPass

		if newThisPass == 0 {
			emptyStreak++
		} else {
			emptyStreak = 0
		}
	}

	log.Printf("[linkedin] connections sync finished, %d imported", added)
	return added, nil
}

func (b *Backend) importDump(ctx context.Context, cs ConnectionStore, dump string) (int, error) {
	added := 0
	sc := snapshot.NewScanner(dump)
	for sc.Scan() {
		f := sc.Fragment()
		ok, err := cs.InsertConnectionIgnore(ctx, store.Connection{
			ProfileURL: f.ProfileURL,
			Name:       f.Name,
			Title:      f.Title,
			Company:    f.Company,
		})
		if err != nil {
			return added, fmt.Errorf("import connection %s: %w", f.ProfileURL, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
