package watcher

import (
	"time"

	"go.uber.org/zap"
)

// WatcherBuilderOption is a functional option for configuring a Watcher via NewWatcher.
type WatcherBuilderOption func(*watcher)

// WithDebounce sets how long a file must stay unchanged before it is imported.
//
// Parameters:
//   - d: the quiet period; values < 0 are treated as 0
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *watcher) {
		w.debounce = max(d, 0)
	}
}

// WithRecursive watches subdirectories too, including ones created later.
//
// Parameters:
//   - recursive: whether to descend into subdirectories
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithRecursive(recursive bool) WatcherBuilderOption {
	return func(w *watcher) {
		w.recursive = recursive
	}
}

// WithInitialScan imports the .glb files already in the directory when watching starts.
//
// Parameters:
//   - scan: whether to import existing files
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithInitialScan(scan bool) WatcherBuilderOption {
	return func(w *watcher) {
		w.scan = scan
	}
}

// WithEventBuffer sets the capacity of the events channel.
//
// Parameters:
//   - size: channel capacity, at least 1
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithEventBuffer(size int) WatcherBuilderOption {
	return func(w *watcher) {
		if size > 0 {
			w.buffer = size
		}
	}
}

// WithWatcherLogger sets the logger for watch and import diagnostics.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithWatcherLogger(logger *zap.Logger) WatcherBuilderOption {
	return func(w *watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}
