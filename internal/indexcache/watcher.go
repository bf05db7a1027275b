package indexcache

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watched index file changed.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, name string)

// Watch starts an fsnotify watcher on dir and reports changes to .json files
// until ctx is cancelled. Bursts of events for the same file are collapsed:
// cb fires once per file after debounce of quiet.
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]string)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			for name, kind := range pending {
				logger.Debug("watcher: index file changed", slog.String("name", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, name)
				}
			}
			pending = make(map[string]string)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}
			kind := eventKind(ev.Op)
			if kind == "" {
				continue
			}
			// A create followed by writes is still a create.
			if prev, seen := pending[name]; !seen || prev != "created" || kind == "deleted" {
				pending[name] = kind
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func eventKind(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "created"
	case op&fsnotify.Write != 0:
		return "updated"
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return "deleted"
	}
	return ""
}
