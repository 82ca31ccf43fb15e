// Package speech provides counter.Announcer implementations backed by the
// platform's command-line text-to-speech tools.
package speech

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/sadopc/voicecount/internal/counter"
)

// DefaultRate is the speaking rate in words per minute.
const DefaultRate = 150

// engine describes how to invoke one TTS command.
type engine struct {
	name string
	args func(rate int, text string) []string
}

var engines = []engine{
	{"espeak-ng", func(rate int, text string) []string { return []string{"-s", strconv.Itoa(rate), text} }},
	{"espeak", func(rate int, text string) []string { return []string{"-s", strconv.Itoa(rate), text} }},
	{"spd-say", func(rate int, text string) []string { return []string{"--wait", text} }},
	{"say", func(rate int, text string) []string { return []string{"-r", strconv.Itoa(rate), text} }},
}

// Config selects and tunes the speech engine.
type Config struct {
	Command string // "auto" or an engine name
	Rate    int
	Log     *slog.Logger

	lookPath func(string) (string, error)
}

// Engines lists the supported command names.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		names = append(names, e.name)
	}
	return names
}

// New returns a speaking announcer for the first available engine. When no
// engine is installed it returns a NopAnnouncer and false.
func New(cfg Config) (counter.Announcer, bool) {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.lookPath == nil {
		cfg.lookPath = exec.LookPath
	}

	for _, e := range candidates(cfg.Command) {
		path, err := cfg.lookPath(e.name)
		if err != nil {
			continue
		}
		cfg.Log.Debug("speech engine selected", "engine", e.name, "path", path)
		return newExecAnnouncer(path, e, cfg.Rate, cfg.Log), true
	}
	cfg.Log.Info("no speech engine found, running silent", "wanted", cfg.Command, "os", runtime.GOOS)
	return counter.NopAnnouncer{}, false
}

func candidates(command string) []engine {
	if command == "" || command == "auto" {
		return engines
	}
	for _, e := range engines {
		if e.name == command {
			return []engine{e}
		}
	}
	return nil
}

// ExecAnnouncer speaks through an external command. Speak never blocks:
// phrases are spoken one at a time by a worker, and a phrase that is still
// waiting when a newer one arrives is dropped so speech never lags behind
// the count.
type ExecAnnouncer struct {
	path   string
	engine engine
	rate   int
	log    *slog.Logger

	mu   sync.Mutex
	cond *sync.Cond // signalled whenever next, current or closed change
	next string
	// queued reports whether next is waiting to be spoken.
	queued bool
	// current cancels the phrase taken by the worker. It is set in the same
	// critical section that takes the phrase, so Silence always reaches it.
	current context.CancelFunc
	closed  bool
}

func newExecAnnouncer(path string, e engine, rate int, log *slog.Logger) *ExecAnnouncer {
	a := &ExecAnnouncer{
		path:   path,
		engine: e,
		rate:   rate,
		log:    log,
	}
	a.cond = sync.NewCond(&a.mu)
	go a.worker()
	return a
}

// Speak queues text, replacing any phrase not yet started.
func (a *ExecAnnouncer) Speak(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.next, a.queued = text, true
	a.cond.Broadcast()
}

// Silence drops the queued phrase and kills the one being spoken.
func (a *ExecAnnouncer) Silence() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silenceLocked()
}

func (a *ExecAnnouncer) silenceLocked() {
	a.next, a.queued = "", false
	if a.current != nil {
		a.current()
	}
	a.cond.Broadcast()
}

// Flush waits until the queued phrase and the one being spoken have
// finished, or until timeout. It reports whether speech went idle.
func (a *ExecAnnouncer) Flush(timeout time.Duration) bool {
	expired := false
	timer := time.AfterFunc(timeout, func() {
		a.mu.Lock()
		expired = true
		a.cond.Broadcast()
		a.mu.Unlock()
	})
	defer timer.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	for a.busyLocked() && !expired && !a.closed {
		a.cond.Wait()
	}
	return !a.busyLocked()
}

func (a *ExecAnnouncer) busyLocked() bool {
	return a.queued || a.current != nil
}

// Close silences the announcer and stops its worker.
func (a *ExecAnnouncer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.silenceLocked()
	a.closed = true
	return nil
}

func (a *ExecAnnouncer) worker() {
	for {
		a.mu.Lock()
		for !a.queued && !a.closed {
			a.cond.Wait()
		}
		if a.closed {
			a.mu.Unlock()
			return
		}
		text := a.next
		a.next, a.queued = "", false
		ctx, cancel := context.WithCancel(context.Background())
		a.current = cancel
		a.mu.Unlock()

		a.say(ctx, text)
		cancel()

		a.mu.Lock()
		a.current = nil
		a.cond.Broadcast()
		a.mu.Unlock()
	}
}

// say runs the engine for text. A ctx cancelled before the command starts
// means the phrase is never heard.
func (a *ExecAnnouncer) say(ctx context.Context, text string) {
	cmd := exec.CommandContext(ctx, a.path, a.engine.args(a.rate, text)...)
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		a.log.Debug("speech command failed", "engine", a.engine.name, "error", err)
	}
}
