package snapshot

import (
	"context"
	"log"
	"time"

	"pharmacare/backend/internal/domain"
)

// Source is anything that can produce a whole-state snapshot. Both
// repository implementations satisfy it.
type Source interface {
	Snapshot(ctx context.Context) (*domain.StoreSnapshot, error)
}

// Autosaver periodically writes the current state to a fixed path. Failures
// are logged and swallowed: a background save must never interrupt the user
// mid-session. Explicit user-initiated saves go through Save directly and do
// surface their errors.
type Autosaver struct {
	source   Source
	path     string
	interval time.Duration
}

func NewAutosaver(source Source, path string, interval time.Duration) *Autosaver {
	if path == "" {
		path = DefaultPath()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Autosaver{source: source, path: path, interval: interval}
}

func (a *Autosaver) Path() string { return a.path }

// Run blocks until ctx is cancelled, saving once per interval and once more
// on the way out so a graceful shutdown never loses the tail of a session.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.SaveNow(context.Background())
			return
		case <-ticker.C:
			a.SaveNow(ctx)
		}
	}
}

// SaveNow performs one best-effort save.
func (a *Autosaver) SaveNow(ctx context.Context) {
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		log.Printf("[autosave] snapshot failed: %v", err)
		return
	}
	if err := Save(a.path, snap); err != nil {
		log.Printf("[autosave] write failed: %v", err)
	}
}
