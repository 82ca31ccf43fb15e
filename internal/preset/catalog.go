package preset

import (
	"errors"
	"log/slog"
	"os"
	"sync"
)

// Catalog is the ordered, editable preset list backed by a YAML file.
// The in-memory list is authoritative; persistence failures are logged.
type Catalog struct {
	mu      sync.RWMutex
	path    string
	presets []Preset
	log     *slog.Logger
	saveErr error
}

// OpenCatalog loads path, falling back to the defaults when the file is
// missing or unusable. An empty path keeps the catalog in memory only.
func OpenCatalog(path string, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	c := &Catalog{path: path, log: log}

	if path == "" {
		c.presets = Defaults()
		return c
	}

	presets, err := Load(path)
	switch {
	case err == nil:
		log.Debug("presets loaded", "path", path, "count", len(presets))
	case errors.Is(err, os.ErrNotExist):
		log.Debug("no preset file, using defaults", "path", path)
	default:
		log.Warn("preset file unusable, using defaults", "path", path, "error", err)
	}
	c.presets = presets
	return c
}

// NewCatalog builds an in-memory catalog from presets.
func NewCatalog(presets []Preset) *Catalog {
	return &Catalog{presets: append([]Preset(nil), presets...), log: slog.Default()}
}

// Path returns the backing file path, or "" for an in-memory catalog.
func (c *Catalog) Path() string { return c.path }

// List returns a copy of the presets in order.
func (c *Catalog) List() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Preset(nil), c.presets...)
}

// Len returns the number of presets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.presets)
}

// Get returns the preset at index.
func (c *Catalog) Get(index int) (Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.presets) {
		return Preset{}, ErrNoSuchPreset
	}
	return c.presets[index], nil
}

// Edit applies u to the preset at index. An invalid result is rejected with
// a *ValidationError and leaves the catalog untouched. On success the whole
// list is rewritten to disk.
func (c *Catalog) Edit(index int, u Update) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.presets) {
		c.mu.Unlock()
		return ErrNoSuchPreset
	}
	updated := u.Apply(c.presets[index])
	if err := updated.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.presets[index] = updated
	snapshot := append([]Preset(nil), c.presets...)
	c.mu.Unlock()

	c.persist(snapshot)
	return nil
}

// Reset replaces every preset with the defaults and persists them.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.presets = Defaults()
	snapshot := append([]Preset(nil), c.presets...)
	c.mu.Unlock()

	c.persist(snapshot)
}

// LastSaveError reports the outcome of the most recent write.
func (c *Catalog) LastSaveError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveErr
}

func (c *Catalog) persist(presets []Preset) {
	if c.path == "" {
		return
	}
	err := Save(c.path, presets)
	if err != nil {
		c.log.Warn("failed to save presets", "path", c.path, "error", err)
	}
	c.mu.Lock()
	c.saveErr = err
	c.mu.Unlock()
}
