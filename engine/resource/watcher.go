package resource

import (
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports YAML files that change inside a set of directories. Editors often write
// a file in several steps, so a path is reported once it has been quiet for the debounce
// interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// Events receives the path of every changed definition file.
	Events chan string
	Errors chan error

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching the given directories.
//
// Parameters:
//   - debounce: the quiet interval, DefaultDebounce when zero
//   - dirs: the directories to watch
//
// Returns:
//   - *Watcher: the running watcher
//   - error: if a directory cannot be watched
func NewWatcher(debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher := &Watcher{
		watcher:  w,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// paths are reported once no further event for them arrived within the interval
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isDefinitionFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				select {
				case w.Events <- p:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				log.Printf("[Resource] dropped watcher error: %v", err)
			}
		case <-w.closeCh:
			return
		}
	}
}

func isDefinitionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ReloadTrees rebuilds every changed tree definition and hands the result to apply. It
// blocks until the watcher is closed. Definitions that fail to load are logged and skipped,
// so a half-saved file never replaces a working tree.
//
// Parameters:
//   - lib: the resources definitions resolve against
//   - apply: receives the source path and the rebuilt tree
//   - options: tree options passed to Build
func (w *Watcher) ReloadTrees(lib *Library, apply func(path string, t animation.Tree), options ...animation.TreeBuilderOption) {
	for path := range w.Events {
		def, err := LoadTreeDefinition(path)
		if err != nil {
			log.Printf("[Resource] reload skipped: %v", err)
			continue
		}
		t, err := Build(def, lib, options...)
		if err != nil {
			log.Printf("[Resource] reload skipped: %v", err)
			continue
		}
		log.Printf("[Resource] reloaded tree %q from %s", def.Name, path)
		apply(path, t)
	}
}
