package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/voicecount/internal/preset"
)

// CompletionPhrase is announced when every set has been counted.
const CompletionPhrase = "All complete"

// ErrAlreadyStarted is returned by Start on a session that is not new.
var ErrAlreadyStarted = errors.New("session already started")

// State is a session lifecycle state.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateCompleted
	StateStopped
)

var stateNames = map[State]string{
	StateCreated:   "created",
	StateRunning:   "running",
	StateCompleted: "completed",
	StateStopped:   "stopped",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether s is Completed or Stopped.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateStopped
}

// Options tunes the timing of a session.
type Options struct {
	// Unit is the base of every delay: a number lasts Unit/speed, a rest
	// tick lasts Unit. Defaults to one second.
	Unit time.Duration
}

// Snapshot is a read-only copy of a session's live state.
type Snapshot struct {
	ID             string
	Preset         preset.Preset
	State          State
	CurrentRep     int
	CurrentNumber  int
	CompletedUnits int
	TotalUnits     int
	StartedAt      time.Time
	FinishedAt     time.Time
	Elapsed        time.Duration
}

// Running reports whether the counting loop is still active.
func (s Snapshot) Running() bool { return s.State == StateRunning }

// Percent is the floor of completed/total in percent.
func (s Snapshot) Percent() int {
	return percent(s.CompletedUnits, s.TotalUnits)
}

// ElapsedSeconds is Elapsed truncated to whole seconds.
func (s Snapshot) ElapsedSeconds() int {
	return int(s.Elapsed / time.Second)
}

// Session is one timed run of a preset. The counting loop owns all
// mutation; other goroutines read Snapshot and may call RequestStop.
type Session struct {
	id        string
	preset    preset.Preset
	announcer Announcer
	unit      time.Duration

	mu            sync.Mutex
	state         State
	currentRep    int
	currentNumber int
	completed     int
	startedAt     time.Time
	finishedAt    time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	queue    *eventQueue
}

// New validates p and returns a session in the Created state.
func New(p preset.Preset, a Announcer, opts Options) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if a == nil {
		a = NopAnnouncer{}
	}
	if opts.Unit <= 0 {
		opts.Unit = time.Second
	}
	return &Session{
		id:        uuid.New().String(),
		preset:    p,
		announcer: a,
		unit:      opts.Unit,
		state:     StateCreated,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		queue:     newEventQueue(),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Preset returns the preset being counted.
func (s *Session) Preset() preset.Preset { return s.preset }

// Events returns the ordered event stream. It is closed after the terminal
// event and must be drained by the presentation.
func (s *Session) Events() <-chan Event { return s.queue.out }

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the counting loop on its own goroutine and returns.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	go s.run()
	return nil
}

// RequestStop asks the loop to stop at its next checkpoint. It is safe to
// call repeatedly and from any goroutine; terminal sessions ignore it.
func (s *Session) RequestStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.state = StateStopped
	s.startedAt = now
	s.finishedAt = now
	s.mu.Unlock()

	s.queue.push(Event{Kind: EventStopped, At: now})
	s.queue.close()
	close(s.done)
}

// Snapshot returns a copy of the live state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Preset:         s.preset,
		State:          s.state,
		CurrentRep:     s.currentRep,
		CurrentNumber:  s.currentNumber,
		CompletedUnits: s.completed,
		TotalUnits:     s.preset.TotalUnits(),
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
	}
	switch {
	case s.state == StateRunning:
		snap.Elapsed = time.Since(s.startedAt)
	case s.state.Terminal():
		snap.Elapsed = s.finishedAt.Sub(s.startedAt)
	}
	return snap
}

func (s *Session) run() {
	defer close(s.done)
	defer s.queue.close()

	p := s.preset
	total := p.TotalUnits()
	numberDelay := NumberDelay(s.unit, p.Speed)

	for rep := 1; rep <= p.RepeatCount; rep++ {
		if s.stopRequested() {
			s.finish(StateStopped)
			return
		}

		s.mu.Lock()
		s.currentRep = rep
		s.currentNumber = 0
		s.mu.Unlock()

		s.emit(Event{Kind: EventSetAnnounced, Rep: rep, Total: p.RepeatCount})
		s.speak(fmt.Sprintf("%s %d", p.CustomText, rep))
		if !s.wait(SetDelay(s.unit, p.Speed)) {
			s.finish(StateStopped)
			return
		}

		for num := 1; num <= p.MaxCount; num++ {
			if s.stopRequested() {
				s.finish(StateStopped)
				return
			}

			s.mu.Lock()
			s.currentNumber = num
			s.completed++
			pct := percent(s.completed, total)
			s.mu.Unlock()

			spoken := ShouldSpeak(num, p.Speed)
			s.emit(Event{Kind: EventNumberAnnounced, Rep: rep, Number: num, MaxCount: p.MaxCount, Spoken: spoken})
			s.emit(Event{Kind: EventProgressChanged, Percent: pct})
			if spoken {
				s.speak(strconv.Itoa(num))
			}
			if !s.wait(numberDelay) {
				s.finish(StateStopped)
				return
			}
		}

		if rep < p.RepeatCount && !s.rest(p.Interval) {
			s.finish(StateStopped)
			return
		}
	}

	s.finish(StateCompleted)
}

// rest counts the interval down in one-unit steps, emitting the remaining
// seconds before each step.
func (s *Session) rest(interval int) bool {
	s.emit(Event{Kind: EventResting, Remaining: interval})
	for remaining := interval; remaining > 0; remaining-- {
		if !s.wait(s.unit) {
			return false
		}
		if remaining > 1 {
			s.emit(Event{Kind: EventResting, Remaining: remaining - 1})
		}
	}
	return true
}

func (s *Session) finish(state State) {
	s.mu.Lock()
	s.state = state
	s.finishedAt = time.Now()
	s.mu.Unlock()

	if state == StateStopped {
		s.silence()
		s.emit(Event{Kind: EventStopped})
		return
	}
	s.emit(Event{Kind: EventCompleted})
	s.speak(CompletionPhrase)
}

// wait sleeps for d unless a stop arrives first; false means stopped.
func (s *Session) wait(d time.Duration) bool {
	if d <= 0 {
		return !s.stopRequested()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) stopRequested() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Session) emit(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.queue.push(e)
}

func (s *Session) speak(text string) {
	defer func() { _ = recover() }()
	s.announcer.Speak(text)
}

func (s *Session) silence() {
	defer func() { _ = recover() }()
	s.announcer.Silence()
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// Drain delivers the events of a started session to fn on the calling
// goroutine until the stream closes, and returns the final state.
// Cancelling ctx requests a stop; the Stopped event is still delivered.
func Drain(ctx context.Context, s *Session, fn func(Event)) State {
	events := s.Events()
	cancelled := ctx.Done()
	for {
		select {
		case <-cancelled:
			s.RequestStop()
			cancelled = nil
		case e, ok := <-events:
			if !ok {
				return s.State()
			}
			fn(e)
		}
	}
}
