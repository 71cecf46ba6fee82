// Package watch re-parses spec files under a directory whenever they change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/specparse/source"
	"github.com/c360studio/specparse/source/parser"
)

const (
	// eventChannelBuffer is the size of the result channel.
	eventChannelBuffer = 500

	defaultDebounceDelay = 500 * time.Millisecond
)

// Parser turns a spec file into a ParseResult. *router.Router satisfies it.
type Parser interface {
	Parse(ctx context.Context, path string, useLLM bool) (*source.ParseResult, error)
}

// Config configures spec file watching.
type Config struct {
	// DebounceDelay is how long changes accumulate before they are parsed.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// Extensions lists file extensions to watch. Empty watches every
	// extension with a structural parser.
	Extensions []string `yaml:"extensions"`

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// UseLLM forces every re-parse through the LLM parser.
	UseLLM bool `yaml:"use_llm"`
}

// DefaultConfig returns default watch configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: defaultDebounceDelay,
		Extensions:    parser.Extensions(),
		ExcludeDirs:   []string{".git", "node_modules", "vendor"},
	}
}

// Op indicates the kind of file change.
type Op string

// OpCreate, OpModify, and OpDelete enumerate the file change kinds.
const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Event reports one settled file change. Result or Err is set for create and
// modify; delete carries neither.
type Event struct {
	// Path is relative to the watched directory.
	Path    string
	AbsPath string
	Op      Op
	Result  *source.ParseResult
	Err     error
}

// Watcher watches a directory tree and re-parses changed spec files. Every
// change triggers a fresh parse; results are never cached.
type Watcher struct {
	config     Config
	dir        string
	parser     Parser
	fsw        *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Content hashes suppress events for writes that change nothing
	hashMu sync.Mutex
	hashes map[string]uint64

	events chan Event

	droppedEvents atomic.Int64
}

// New creates a watcher for dir. Call Start to begin watching.
func New(dir string, p Parser, config Config, logger *slog.Logger) (*Watcher, error) {
	if p == nil {
		return nil, errors.New("watch: parser is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = defaultDebounceDelay
	}

	exts := config.Extensions
	if len(exts) == 0 {
		exts = parser.Extensions()
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	excludes := make(map[string]bool, len(config.ExcludeDirs))
	for _, d := range config.ExcludeDirs {
		excludes[d] = true
	}

	return &Watcher{
		config:     config,
		dir:        dir,
		parser:     p,
		fsw:        fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]uint64),
		events:     make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of parse events. It is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds watches for the directory tree and begins processing changes.
func (w *Watcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: w.dir, Err: errors.New("not a directory")}
	}

	if err := w.addWatchesRecursive(w.dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Spec watcher started",
		"dir", w.dir,
		"debounce", w.config.DebounceDelay,
		"extensions", len(w.extensions))
	return nil
}

// Stop stops the watcher. The events channel is closed by processEvents
// when it exits.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) skipDir(path string) bool {
	base := filepath.Base(path)
	return w.excludes[base] || (strings.HasPrefix(base, ".") && base != "." && path != w.dir)
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			w.seedHash(path)
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

// seedHash records existing content so an untouched rewrite stays silent.
func (w *Watcher) seedHash(path string) {
	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.hashMu.Lock()
	w.hashes[path] = xxhash.Sum64(content)
	w.hashMu.Unlock()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		// New directories need their own watch
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.skipDir(path) {
				if err := w.fsw.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}

	// Chmod alone never changes content
	if event.Op == fsnotify.Chmod {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Spec change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}
		if ev, ok := w.settle(ctx, path, op); ok {
			w.sendEvent(ev)
		}
	}
}

// settle turns an accumulated change into an event, parsing the file when it
// still exists and its content changed.
func (w *Watcher) settle(ctx context.Context, path string, op fsnotify.Op) (Event, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		rel = path
	}
	ev := Event{Path: rel, AbsPath: path}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.hashMu.Lock()
		_, known := w.hashes[path]
		delete(w.hashes, path)
		w.hashMu.Unlock()
		if !known && !op.Has(fsnotify.Remove) && !op.Has(fsnotify.Rename) {
			return ev, false
		}
		ev.Op = OpDelete
		return ev, true
	}
	if err != nil {
		w.logger.Warn("Failed to read changed spec", "path", rel, "error", err)
		return ev, false
	}

	sum := xxhash.Sum64(content)
	w.hashMu.Lock()
	old, known := w.hashes[path]
	w.hashes[path] = sum
	w.hashMu.Unlock()
	if known && old == sum {
		return ev, false
	}

	ev.Op = OpModify
	if !known {
		ev.Op = OpCreate
	}
	ev.Result, ev.Err = w.parser.Parse(ctx, path, w.config.UseLLM)
	if ev.Err != nil {
		w.logger.Warn("Spec re-parse failed", "path", rel, "error", ev.Err)
	}
	return ev, true
}

func (w *Watcher) sendEvent(ev Event) {
	select {
	case w.events <- ev:
		w.logger.Debug("Sent watch event", "path", ev.Path, "op", ev.Op)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", ev.Path,
			"total_dropped", dropped)
	}
}
