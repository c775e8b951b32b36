package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/nhr-fau/voidkv/internal/corelog"
	"github.com/nhr-fau/voidkv/internal/value"
)

// Source supplies the current database for a save; Store.Snapshot
// satisfies it.
type Source func() value.Database

// Autosave starts a background goroutine that calls Save every interval
// until ctx is canceled. Skew from a slow Save pushing the next tick late
// is acceptable; there is no catch-up. Call wg.Done exactly once, on
// exit, matching the usual checkpoint-goroutine lifecycle.
func Autosave(ctx context.Context, wg *sync.WaitGroup, path string, interval time.Duration, source Source) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		if interval <= 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db := source()
				if err := Save(path, db); err != nil {
					corelog.Errorf("autosave: %s", err)
					continue
				}
				corelog.Infof("autosave: saved %d table(s) to %s", len(db), path)
			}
		}
	}()
}

// SaveOnShutdown performs one final, synchronous save, called after the
// listener has stopped accepting new connections and the autosave
// goroutine has been asked to exit.
func SaveOnShutdown(path string, source Source) error {
	return Save(path, source())
}
