// Package confwatch hot-reloads ustreamerd's configuration file, using
// fsnotify the way the teacher's internal/driver/watcher package
// watches a directory for new files: a background goroutine merges
// filesystem events and a done channel into one loop.
package confwatch

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/warpcomdev/ustreamerd/internal/config"
	"github.com/warpcomdev/ustreamerd/internal/svclog"
)

// Watcher reloads a Config from disk whenever the underlying file
// changes, delivering each successfully parsed Config on Updates.
type Watcher struct {
	path    string
	logger  svclog.Logger
	Updates chan config.Config
}

// New builds a Watcher over path. path must already exist: fsnotify
// watches inodes, not prospective paths.
func New(path string, logger svclog.Logger) *Watcher {
	return &Watcher{
		path:    path,
		logger:  logger,
		Updates: make(chan config.Config, 1),
	}
}

// Run watches the config file until ctx is cancelled, emitting a
// reloaded Config on Updates after every write. Parse errors are
// logged and skipped rather than propagated, so a transient bad write
// (editors often write-then-rename) never kills the watch loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.Updates)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", svclog.Err(err))

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := config.Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed", svclog.String("path", w.path), svclog.Err(err))
				continue
			}
			select {
			case w.Updates <- cfg:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
