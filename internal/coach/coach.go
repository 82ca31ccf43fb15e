// Package coach is the single entry point presentations use to reach the
// counting core: it owns the preset catalog, allows one session at a time,
// and records every finished session to history.
package coach

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/sadopc/voicecount/internal/counter"
	"github.com/sadopc/voicecount/internal/preset"
	"github.com/sadopc/voicecount/internal/store"
)

var ErrSessionActive = errors.New("a session is already running")

// Recorder persists finished sessions. *store.Store satisfies it.
type Recorder interface {
	RecordWorkout(w store.Workout) error
}

type Config struct {
	Catalog   *preset.Catalog
	Announcer counter.Announcer
	Recorder  Recorder
	Options   counter.Options
	Log       *slog.Logger
}

type Coach struct {
	catalog   *preset.Catalog
	announcer counter.Announcer
	recorder  Recorder
	opts      counter.Options
	log       *slog.Logger

	mu       sync.Mutex
	active   *counter.Session
	watchers sync.WaitGroup
}

func New(cfg Config) *Coach {
	if cfg.Catalog == nil {
		cfg.Catalog = preset.NewCatalog(preset.Defaults())
	}
	if cfg.Announcer == nil {
		cfg.Announcer = counter.NopAnnouncer{}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Coach{
		catalog:   cfg.Catalog,
		announcer: cfg.Announcer,
		recorder:  cfg.Recorder,
		opts:      cfg.Options,
		log:       cfg.Log,
	}
}

func (c *Coach) Catalog() *preset.Catalog { return c.catalog }

func (c *Coach) ListPresets() []preset.Preset { return c.catalog.List() }

// EditPreset validates and stores the edit. Sessions already running keep
// the preset they started with.
func (c *Coach) EditPreset(index int, u preset.Update) error {
	if err := c.catalog.Edit(index, u); err != nil {
		c.log.Debug("preset edit rejected", "index", index, "error", err)
		return err
	}
	c.log.Info("preset updated", "index", index)
	return nil
}

// ResetPresets restores the built-in presets.
func (c *Coach) ResetPresets() {
	c.catalog.Reset()
	c.log.Info("presets reset to defaults")
}

// Resolve maps a 1-based number or a case-insensitive label to a preset index.
func (c *Coach) Resolve(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > c.catalog.Len() {
			return 0, fmt.Errorf("preset %d: %w", n, preset.ErrNoSuchPreset)
		}
		return n - 1, nil
	}
	for i, p := range c.catalog.List() {
		if strings.EqualFold(p.Label, ref) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("preset %q: %w", ref, preset.ErrNoSuchPreset)
}

// StartSession creates and starts a session for the preset at index.
func (c *Coach) StartSession(index int) (*counter.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.State().Terminal() {
		return nil, ErrSessionActive
	}

	p, err := c.catalog.Get(index)
	if err != nil {
		return nil, err
	}
	s, err := counter.New(p, c.announcer, c.opts)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	c.active = s
	c.log.Info("session started", "id", s.ID(), "preset", p.Label, "units", p.TotalUnits())

	c.watchers.Add(1)
	go c.watch(s)
	return s, nil
}

// RequestStop asks s to stop. A nil session is ignored.
func (c *Coach) RequestStop(s *counter.Session) {
	if s == nil {
		return
	}
	c.log.Debug("stop requested", "id", s.ID())
	s.RequestStop()
}

// Active returns the running session, or nil.
func (c *Coach) Active() *counter.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || !c.active.Snapshot().Running() {
		return nil
	}
	return c.active
}

// Close stops the active session and waits until it has been recorded.
func (c *Coach) Close() {
	if s := c.Active(); s != nil {
		c.RequestStop(s)
	}
	c.watchers.Wait()
}

func (c *Coach) watch(s *counter.Session) {
	defer c.watchers.Done()
	<-s.Done()

	snap := s.Snapshot()
	c.log.Info("session finished", "id", snap.ID, "state", snap.State.String(),
		"completed", snap.CompletedUnits, "total", snap.TotalUnits, "elapsed", snap.Elapsed)

	if c.recorder != nil {
		if err := c.recorder.RecordWorkout(workoutFrom(snap)); err != nil {
			c.log.Warn("failed to record workout", "id", snap.ID, "error", err)
		}
	}

	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
}

func workoutFrom(snap counter.Snapshot) store.Workout {
	status := store.StatusCompleted
	if snap.State == counter.StateStopped {
		status = store.StatusStopped
	}
	p := snap.Preset
	return store.Workout{
		ID:             snap.ID,
		Label:          p.Label,
		Icon:           p.Icon,
		CustomText:     p.CustomText,
		MaxCount:       p.MaxCount,
		RepeatCount:    p.RepeatCount,
		Speed:          p.Speed,
		Interval:       p.Interval,
		CompletedUnits: snap.CompletedUnits,
		TotalUnits:     snap.TotalUnits,
		Status:         status,
		StartedAt:      snap.StartedAt,
		FinishedAt:     snap.FinishedAt,
		ElapsedSecs:    int64(snap.ElapsedSeconds()),
	}
}
