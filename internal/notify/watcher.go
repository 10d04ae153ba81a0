// Package notify watches a single file on disk and invokes a callback
// whenever it changes, the fsnotify-backed mechanism the server core's
// manifest hot-reload (internal/mcp/server.WatchManifest) uses to pick up
// an edited tool/prompt/resource manifest without restarting the process.
package notify

import (
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches one path and calls onChange, debounced, whenever the
// underlying file is written or replaced. Editors commonly rename-over
// rather than write-in-place, so both Write and Create are treated as a
// change.
type FileWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewFileWatcher builds a watcher for path. debounce coalesces a burst of
// filesystem events into a single onChange call; pass 0 for no debouncing.
func NewFileWatcher(path string, debounce time.Duration, onChange func()) *FileWatcher {
	return &FileWatcher{path: path, onChange: onChange, debounce: debounce, done: make(chan struct{})}
}

// Start begins watching. Call Stop to release the underlying OS watch.
func (fw *FileWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(fw.path); err != nil {
		_ = w.Close()
		return err
	}
	fw.watcher = w
	go fw.loop()
	return nil
}

// Stop shuts down the watcher and waits for its loop goroutine to exit.
func (fw *FileWatcher) Stop() {
	if fw.watcher != nil {
		_ = fw.watcher.Close()
	}
	<-fw.done
}

func (fw *FileWatcher) loop() {
	defer close(fw.done)
	var timer *time.Timer
	fire := func() {
		if fw.onChange != nil {
			fw.onChange()
		}
	}
	for {
		select {
		case evt, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if fw.debounce <= 0 {
				fire()
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounce, fire)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}
