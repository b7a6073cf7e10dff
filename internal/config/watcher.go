package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 100 * time.Millisecond

// Provider serves the configuration to the engine: Load for the
// startup snapshot, Subscribe for live reloads.
type Provider struct {
	path string

	mu      sync.Mutex
	subs    []func(*Config)
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewProvider returns a provider for the given file path.
func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Load reads the current configuration.
func (p *Provider) Load() (*Config, error) {
	return Load(p.path)
}

// Subscribe registers fn to receive every future valid configuration.
// The first subscription starts the file watcher; an unreadable or
// invalid file on reload is skipped without notifying.
func (p *Provider) Subscribe(fn func(*Config)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subs = append(p.subs, fn)
	if p.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	// Watch the directory: editors often replace the file, which drops
	// a watch held on the file itself.
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	p.watcher = w
	p.done = make(chan struct{})
	go p.watch(w, p.done)
	return nil
}

// Close stops the watcher.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	err := p.watcher.Close()
	p.watcher = nil
	return err
}

func (p *Provider) watch(w *fsnotify.Watcher, done chan struct{}) {
	var timer *time.Timer
	base := filepath.Base(p.path)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, p.reload)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)

		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (p *Provider) reload() {
	cfg, err := Load(p.path)
	if err != nil {
		log.Printf("config reload skipped: %v", err)
		return
	}

	p.mu.Lock()
	subs := make([]func(*Config), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
}
