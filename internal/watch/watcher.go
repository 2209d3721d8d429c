// Package watch signals the monitor when new invoice artifacts settle in the
// watched directory.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Allowed extensions for discovery (lowercase, without '.').
var defaultExts = map[string]struct{}{
	"txt": {},
	"pdf": {},
}

type Config struct {
	Root        string
	AllowedExts map[string]struct{}
	Debounce    time.Duration // coalesce multi-file email groups into one signal
}

// Start watches cfg.Root and emits one signal per settled burst of file
// events. The channel closes when ctx is cancelled.
func Start(ctx context.Context, cfg Config, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, errors.New("no root provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = defaultExts
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch.create_failed", "error", err)
		return nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		logger.Error("watch.add_root_failed", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, err
	}

	sigCh := make(chan struct{}, 1)
	go func() {
		defer close(sigCh)
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logger.Warn("watch.close_error", "error", cerr)
			}
		}()

		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if !allowed(ev.Name, cfg.AllowedExts) {
					continue
				}
				logger.Debug("watch.event", "op", ev.Op.String(), "path", ev.Name)
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
					timerC = timer.C
				} else {
					timer.Reset(cfg.Debounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch.error", "error", err)
			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case sigCh <- struct{}{}:
				default:
				}
			}
		}
	}()
	return sigCh, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := exts[ext]
	return ok
}
