package skill

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch rescans the Registry on every tick and whenever fsnotify reports
// a change under one of its roots, until ctx is cancelled. A missing root
// directory is simply not watched (fsnotify.Add errors are logged, not
// fatal — the ticker still covers a root that doesn't exist yet and gets
// created later).
func (r *Registry) Watch(ctx context.Context, tick time.Duration, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("skill: fsnotify unavailable, falling back to ticker-only reload", "err", err)
		r.watchTickerOnly(ctx, tick)
		return
	}
	defer watcher.Close()

	for _, root := range r.roots {
		if err := watcher.Add(root.Path); err != nil {
			log.Debug("skill: not watching root", "path", root.Path, "err", err)
		}
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Scan(); err != nil {
				log.Warn("skill: tick rescan failed", "err", err)
			}
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.Scan(); err != nil {
				log.Warn("skill: watch rescan failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("skill: watcher error", "err", err)
		}
	}
}

func (r *Registry) watchTickerOnly(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Scan()
		}
	}
}
