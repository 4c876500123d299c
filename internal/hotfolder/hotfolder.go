// Package hotfolder watches a directory for new images and hands them out
// in fixed-size groups, in the order they arrived.
package hotfolder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/rogersnm/copista/internal/fileutil"
)

const (
	DefaultGroupSize = 2
	DefaultSettle    = 750 * time.Millisecond
)

var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

type Options struct {
	Dir string
	// GroupSize is how many images make one group.
	GroupSize int
	// Settle is how long a file must go without events before it is
	// considered complete.
	Settle time.Duration
	Logger *zap.Logger
}

// Watcher emits groups of settled image paths on Groups. It has one
// producer goroutine, started by Run.
type Watcher struct {
	dir       string
	groupSize int
	settle    time.Duration
	log       *zap.Logger
	fs        *fsnotify.Watcher
	groups    chan []string

	// pending files in first-seen order, with the time of their last event
	order    []string
	lastSeen map[string]time.Time
	ready    []string
}

func New(opts Options) (*Watcher, error) {
	if opts.GroupSize <= 0 {
		opts.GroupSize = DefaultGroupSize
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("hot folder: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("hot folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("hot folder: %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		dir:       dir,
		groupSize: opts.GroupSize,
		settle:    opts.Settle,
		log:       opts.Logger.Named("hotfolder"),
		fs:        fw,
		groups:    make(chan []string),
		lastSeen:  make(map[string]time.Time),
	}, nil
}

func (w *Watcher) Dir() string { return w.dir }

// Groups is closed when Run returns.
func (w *Watcher) Groups() <-chan []string {
	return w.groups
}

// Run processes filesystem events until ctx is done or the watcher is
// closed. Images left over in an incomplete group are logged and dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.groups)
	defer w.fs.Close()

	tick := time.NewTicker(w.settle / 4)
	defer tick.Stop()

	w.log.Info("watching", zap.String("dir", w.dir), zap.Int("group_size", w.groupSize))
	for {
		select {
		case <-ctx.Done():
			w.logLeftovers()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev, time.Now())
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		case now := <-tick.C:
			w.promote(now)
			for len(w.ready) >= w.groupSize {
				group := append([]string(nil), w.ready[:w.groupSize]...)
				select {
				case w.groups <- group:
					w.ready = w.ready[w.groupSize:]
				case <-ctx.Done():
					w.logLeftovers()
					return nil
				}
			}
		}
	}
}

// watched reports whether path is a visible image file directly in dir.
func (w *Watcher) watched(path string) bool {
	name := filepath.Base(path)
	return filepath.Dir(path) == w.dir && !strings.HasPrefix(name, ".") && fileutil.IsImage(name)
}

func (w *Watcher) handle(ev fsnotify.Event, now time.Time) {
	if !w.watched(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if _, seen := w.lastSeen[ev.Name]; !seen {
			w.order = append(w.order, ev.Name)
			w.log.Debug("new file", zap.String("path", ev.Name))
		}
		w.lastSeen[ev.Name] = now
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.forget(ev.Name)
	}
}

func (w *Watcher) forget(path string) {
	if _, ok := w.lastSeen[path]; !ok {
		return
	}
	delete(w.lastSeen, path)
	for i, p := range w.order {
		if p == path {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// promote moves settled files from the head of the pending list to the
// ready queue. A file still being written holds back everything after it
// so arrival order is kept.
func (w *Watcher) promote(now time.Time) {
	for len(w.order) > 0 {
		path := w.order[0]
		if now.Sub(w.lastSeen[path]) < w.settle {
			return
		}
		w.order = w.order[1:]
		delete(w.lastSeen, path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		w.ready = append(w.ready, path)
		w.log.Debug("file settled", zap.String("path", path))
	}
}

func (w *Watcher) logLeftovers() {
	left := len(w.ready) + len(w.order)
	if left > 0 {
		w.log.Warn("stopping with ungrouped images", zap.Int("count", left))
	}
}

// Close stops a watcher whose Run has not been started.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
