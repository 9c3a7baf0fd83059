// Package prefs keeps the choices a user makes inside the dashboard (colour
// theme, the page it opens on) in a small TOML file, by default
// ~/.config/controldeck/prefs.toml.
//
// Reading never fails: a missing, unreadable or malformed file yields
// Defaults. Writing from the render loop goes through a Writer so the loop
// never touches the disk.
package prefs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs is the persisted UI state.
type Prefs struct {
	Theme     string `toml:"theme"`
	StartPage string `toml:"start_page"`
}

const (
	defaultPath      = "~/.config/controldeck/prefs.toml"
	defaultTheme     = "Dracula"
	defaultStartPage = "dashboard"
)

// Defaults is what a fresh install starts with.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, StartPage: defaultStartPage}
}

// DefaultPath is used when no path is configured.
func DefaultPath() string {
	return defaultPath
}

// Load reads the prefs file at path. Blank fields are filled from Defaults
// and the start page is lower-cased.
func Load(path string) Prefs {
	file, err := resolve(path)
	if err != nil {
		return Defaults()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return Defaults()
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		log.Printf("prefs: ignoring %s: %v", file, err)
		return Defaults()
	}
	return p.normalized()
}

// Save writes p to path, creating the parent directory.
func Save(path string, p Prefs) error {
	file, err := resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("prefs: mkdir: %w", err)
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("prefs: write %s: %w", file, err)
	}
	return nil
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.StartPage = strings.ToLower(strings.TrimSpace(p.StartPage))
	if p.StartPage == "" {
		p.StartPage = defaultStartPage
	}
	return p
}

func resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("prefs: home dir: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}

// Writer saves prefs on its own goroutine. Submit never blocks: a value
// still waiting to be written is replaced by the newer one, and values are
// written in the order they were submitted. Failures are logged.
type Writer struct {
	path    string
	pending chan Prefs
	done    chan struct{}
	once    sync.Once
}

// NewWriter starts a writer for path.
func NewWriter(path string) *Writer {
	w := &Writer{
		path:    path,
		pending: make(chan Prefs, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues p. It must be called from a single goroutine and not after
// Close.
func (w *Writer) Submit(p Prefs) {
	for {
		select {
		case w.pending <- p:
			return
		default:
		}
		select {
		case <-w.pending:
		default:
		}
	}
}

// Close writes whatever is still queued and waits for the writer to stop.
// It is safe to call more than once.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.pending) })
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for p := range w.pending {
		if err := Save(w.path, p); err != nil {
			log.Printf("prefs: %v", err)
		}
	}
}
