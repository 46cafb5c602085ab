package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a change reported by a Watcher.
type Event interface {
	// EventPath returns the file the event is about.
	EventPath() string
}

// EventReady reports a .glb file that was imported.
// Key is the loader cache key of this version of the file; the receiver owns it and should
// Evict it from the loader once the model is no longer displayed.
type EventReady struct {
	Path  string
	Key   string
	ID    string
	Model model.Model
}

// EventFailed reports a .glb file whose import failed.
type EventFailed struct {
	Path string
	Err  error
}

// EventRemoved reports a .glb file that was removed or renamed away.
type EventRemoved struct {
	Path string
}

func (e EventReady) EventPath() string   { return e.Path }
func (e EventFailed) EventPath() string  { return e.Path }
func (e EventRemoved) EventPath() string { return e.Path }

// watcher is the implementation of the Watcher interface.
type watcher struct {
	dir       string
	loader    loader.Loader
	logger    *zap.Logger
	debounce  time.Duration
	recursive bool
	scan      bool
	buffer    int

	fsnotify *fsnotify.Watcher
	events   chan Event
	errors   chan error
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// Watcher imports .glb files as they appear or change in a directory.
type Watcher interface {
	// Events returns the channel of import results. It is closed by Close.
	//
	// Returns:
	//   - <-chan Event: EventReady, EventFailed and EventRemoved values
	Events() <-chan Event

	// Errors returns file system watch errors. It is closed by Close.
	//
	// Returns:
	//   - <-chan error: watch errors
	Errors() <-chan error

	// Close stops watching, cancels pending imports and closes both channels.
	//
	// Returns:
	//   - error: error if the underlying watcher fails to close
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher starts watching dir and imports changed .glb files through l.
//
// Parameters:
//   - dir: the directory to watch
//   - l: the loader models are imported through
//   - options: a variadic list of WatcherBuilderOption functions to configure the Watcher
//
// Returns:
//   - Watcher: the running watcher
//   - error: error if dir cannot be watched
func NewWatcher(dir string, l loader.Loader, options ...WatcherBuilderOption) (Watcher, error) {
	w := &watcher{
		dir:      dir,
		loader:   l,
		logger:   zap.NewNop(),
		debounce: 250 * time.Millisecond,
		buffer:   64,
		timers:   make(map[string]*time.Timer),
	}
	for _, option := range options {
		option(w)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to watch %s: not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsnotify = fw
	w.events = make(chan Event, w.buffer)
	w.errors = make(chan error, 1)
	w.done = make(chan struct{})
	w.ctx, w.cancel = context.WithCancel(context.Background())

	if err := w.addDir(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.start()

	if w.scan {
		w.scanDir(dir)
	}
	return w, nil
}

func (w *watcher) Events() <-chan Event {
	return w.events
}

func (w *watcher) Errors() <-chan error {
	return w.errors
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.cancel()
	close(w.done)
	err := w.fsnotify.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

// start forwards fsnotify events until Close.
func (w *watcher) start() {
	defer w.wg.Done()

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handle(e)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("file watch error dropped", zap.Error(err))
			}
		case <-w.done:
			return
		}
	}
}

// handle schedules imports for created or written .glb files and follows new directories.
func (w *watcher) handle(e fsnotify.Event) {
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
			if w.recursive && e.Op&fsnotify.Create != 0 {
				if err := w.addDir(e.Name); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("dir", e.Name), zap.Error(err))
				}
				w.scanDir(e.Name)
			}
			return
		}
		if isGLB(e.Name) {
			w.schedule(e.Name, w.debounce)
		}
		return
	}

	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && isGLB(e.Name) {
		w.mu.Lock()
		if t, ok := w.timers[e.Name]; ok {
			t.Stop()
			delete(w.timers, e.Name)
		}
		w.mu.Unlock()
		w.emit(EventRemoved{Path: e.Name})
	}
}

// schedule imports path after delay, restarting the delay if path changes again first.
func (w *watcher) schedule(path string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(delay)
		return
	}
	w.timers[path] = time.AfterFunc(delay, func() { w.fire(path) })
}

// fire imports path unless the watcher closed while the timer was pending.
func (w *watcher) fire(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	info, err := os.Stat(path)
	if err != nil {
		w.logger.Debug("changed file is gone", zap.String("path", path), zap.Error(err))
		return
	}

	key := fmt.Sprintf("%s@%d", path, info.ModTime().UnixNano())
	m, err := w.loader.LoadAs(w.ctx, key, path)
	if err != nil {
		w.logger.Warn("watched import failed", zap.String("path", path), zap.Error(err))
		w.emit(EventFailed{Path: path, Err: err})
		return
	}
	w.logger.Info("watched import ready", zap.String("path", path), zap.String("id", m.ID()))
	w.emit(EventReady{Path: path, Key: key, ID: m.ID(), Model: m})
}

// emit delivers e unless the watcher is closing.
func (w *watcher) emit(e Event) {
	select {
	case w.events <- e:
	case <-w.done:
	}
}

// addDir watches dir, and its subdirectories when recursive.
func (w *watcher) addDir(dir string) error {
	if !w.recursive {
		if err := w.fsnotify.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsnotify.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// scanDir schedules every .glb already present in dir.
func (w *watcher) scanDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isGLB(path) {
			w.schedule(path, 0)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to scan watched directory", zap.String("dir", dir), zap.Error(err))
	}
}

func isGLB(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".glb")
}
