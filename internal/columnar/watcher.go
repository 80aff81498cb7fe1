package columnar

import (
	"sync"
	"time"
)

// Watcher polls the watched artifact mtimes at a fixed interval and triggers
// a full rebuild when any of them changed. One watcher per process; Start is
// idempotent.
type Watcher struct {
	store    *Store
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	seen map[string]time.Time
}

// NewWatcher creates a watcher with the given poll interval (60s when zero).
func NewWatcher(store *Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Watcher{
		store:    store,
		interval: interval,
		seen:     map[string]time.Time{},
	}
}

// Start spawns the polling goroutine. Calling Start on a running watcher is a
// no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)
	w.store.log.Info().Dur("interval", w.interval).Msg("Columnar watcher started")
}

// Stop terminates the polling goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()
	<-done
}

func (w *Watcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.changed() {
				if _, err := w.store.RefreshAll(); err != nil {
					w.store.log.Error().Err(err).Msg("Watcher refresh failed")
				}
			}
		}
	}
}

// changed stats every watched artifact and reports whether any mtime moved
// since the last poll.
func (w *Watcher) changed() bool {
	dirty := false
	seenArtifacts := map[string]bool{}
	for _, spec := range tableSpecs {
		if seenArtifacts[spec.Artifact] {
			continue
		}
		seenArtifacts[spec.Artifact] = true
		mtime, err := w.store.cache.MTime(spec.Artifact)
		if err != nil {
			continue
		}
		if prev, ok := w.seen[spec.Artifact]; !ok || mtime.After(prev) {
			dirty = true
		}
		w.seen[spec.Artifact] = mtime
	}
	return dirty
}
