// Package dirsource feeds a source.Source from JPEG files dropped into
// a directory: an fsnotify watcher is used the same way the teacher's
// internal/driver/dirsource package watches for new capture files,
// simplified to a single flat folder since the streaming core has no
// notion of per-camera subfolders.
package dirsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/warpcomdev/ustreamerd/internal/source"
	"github.com/warpcomdev/ustreamerd/internal/svclog"
)

// Watcher publishes the bytes of every new or rewritten .jpg/.jpeg file
// that appears in root into a source.Source.
type Watcher struct {
	root   string
	src    *source.Source
	width  int
	height int
	logger svclog.Logger
}

// New builds a Watcher over root. width and height are published
// alongside every frame, since this package does not decode images.
func New(root string, width, height int, src *source.Source, logger svclog.Logger) *Watcher {
	return &Watcher{root: root, src: src, width: width, height: height, logger: logger}
}

func isJPEG(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}

// Run watches root until ctx is cancelled. On start, it seeds the
// source with the most recently modified matching file already present,
// then republishes every subsequent create/write event. Read failures
// on an individual file are logged and skipped, not fatal: the watcher
// keeps running in case the write was caught mid-flight.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return err
	}

	if seed, ok := w.newestFile(); ok {
		w.publish(seed)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("dirsource watch error", svclog.Err(err))

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isJPEG(ev.Name) {
				continue
			}
			w.publish(ev.Name)
		}
	}
}

func (w *Watcher) publish(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("dirsource read failed", svclog.String("path", path), svclog.Err(err))
		return
	}
	w.src.Publish(data, w.width, w.height)
}

func (w *Watcher) newestFile() (string, bool) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.logger.Warn("dirsource list failed", svclog.String("root", w.root), svclog.Err(err))
		return "", false
	}
	var newestPath string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !isJPEG(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newestTime) {
			newestTime = info.ModTime()
			newestPath = filepath.Join(w.root, entry.Name())
		}
	}
	return newestPath, newestPath != ""
}
