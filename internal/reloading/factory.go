package reloading

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gozero/infercore/internal/model"
)

// pollInterval is the scanner's fallback polling period, used alongside fsnotify events so a
// watch that misses an event (e.g., the directory didn't exist yet) still converges.
const pollInterval = 5 * time.Second

// Constructor builds a backend model.Model from a concrete, on-disk model path, e.g. wiring
// it through modelfile.NewFromSpec with the path substituted in. It is supplied by the
// caller, not this package, since ModelFactory's engine-specific construction lives in
// internal/modelfile (spec §4.7).
type Constructor func(path string) (model.Model, error)

// Factory watches one directory/pattern and keeps every Model registered with it pointed at
// the latest matching generation (spec §3 "ReloadingModel owns its current backend", §4.4).
type Factory struct {
	pattern     Pattern
	constructor Constructor

	mu          sync.Mutex
	latestPath  string
	latestGen   int
	instances   map[*Model]bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFactory parses patternPath and starts the background scanner. Construction blocks,
// polling, until at least one matching file exists in the directory (spec §4.4 "Startup").
func NewFactory(patternPath string, constructor Constructor) (*Factory, error) {
	pattern, err := ParsePattern(patternPath)
	if err != nil {
		return nil, err
	}
	f := &Factory{
		pattern:     pattern,
		constructor: constructor,
		instances:   make(map[*Model]bool),
		done:        make(chan struct{}),
	}

	path, gen, err := f.blockUntilMatch()
	if err != nil {
		return nil, err
	}
	f.latestPath, f.latestGen = path, gen

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.scanLoop(ctx)
	return f, nil
}

// blockUntilMatch polls the directory until a matching file exists, matching §4.4's startup
// requirement that this is the only place the scanner may block indefinitely.
func (f *Factory) blockUntilMatch() (path string, generation int, err error) {
	for {
		path, generation, found, scanErr := f.scanOnce()
		if scanErr != nil {
			return "", 0, scanErr
		}
		if found {
			return path, generation, nil
		}
		time.Sleep(pollInterval)
	}
}

// scanOnce lists f.pattern.Dir and returns the highest-generation matching file. A missing
// directory is transient and yields found=false, not an error (§4.4 "Errors").
func (f *Factory) scanOnce() (path string, generation int, found bool, err error) {
	entries, err := os.ReadDir(f.pattern.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, false, nil
		}
		return "", 0, false, errors.Wrapf(err, "reloading: listing %s", f.pattern.Dir)
	}
	best := -1
	var bestName string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		gen, ok := f.pattern.Match(entry.Name())
		if !ok {
			continue
		}
		if gen > best {
			best = gen
			bestName = entry.Name()
		}
	}
	if best < 0 {
		return "", 0, false, nil
	}
	return filepath.Join(f.pattern.Dir, bestName), best, true, nil
}

// scanLoop drives both an fsnotify watch (for prompt wakeups) and a polling ticker (as a
// backstop, e.g. for a directory that doesn't exist yet at watch-setup time).
func (f *Factory) scanLoop(ctx context.Context) {
	defer close(f.done)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := watcher.Add(f.pattern.Dir); addErr != nil {
			klog.V(1).Infof("reloading: could not watch %s, falling back to polling only: %v", f.pattern.Dir, addErr)
		}
		defer watcher.Close()
	} else {
		klog.V(1).Infof("reloading: fsnotify unavailable, falling back to polling only: %v", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	if watcher != nil {
		events = watcher.Events
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.rescan()
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			f.rescan()
		}
	}
}

func (f *Factory) rescan() {
	path, gen, found, err := f.scanOnce()
	if err != nil {
		klog.Warningf("reloading: scan of %s failed: %v", f.pattern.Dir, err)
		return
	}
	if !found {
		return
	}

	f.mu.Lock()
	if path == f.latestPath {
		f.mu.Unlock()
		return
	}
	f.latestPath, f.latestGen = path, gen
	instances := make([]*Model, 0, len(f.instances))
	for m := range f.instances {
		instances = append(instances, m)
	}
	f.mu.Unlock()

	sort.Slice(instances, func(i, j int) bool { return instances[i].name < instances[j].name })
	for _, m := range instances {
		if err := m.swap(func() (model.Model, error) { return f.constructor(path) }); err != nil {
			klog.Errorf("reloading: swap to generation %d failed for %s: %v", gen, m.name, err)
		}
	}
}

// New registers and returns a new Model tracking f's latest generation, constructing its
// initial backend synchronously from whatever generation was latest at the call.
func (f *Factory) New(name string) (*Model, error) {
	f.mu.Lock()
	path := f.latestPath
	f.mu.Unlock()

	backend, err := f.constructor(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reloading: constructing initial backend for %s from %s", name, path)
	}
	m := newModel(name, backend)

	f.mu.Lock()
	f.instances[m] = true
	f.mu.Unlock()
	return m, nil
}

// Forget unregisters m; subsequent generation changes no longer reload it.
func (f *Factory) Forget(m *Model) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instances, m)
}

// LatestPath returns the most recently observed matching path.
func (f *Factory) LatestPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latestPath
}

// Close stops the background scanner and waits for it to exit.
func (f *Factory) Close() error {
	f.cancel()
	<-f.done
	return nil
}
