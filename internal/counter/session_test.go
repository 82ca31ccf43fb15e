package counter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/voicecount/internal/preset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	spoken   []string
	silenced int
}

func (r *recorder) Speak(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
}

func (r *recorder) Silence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.silenced++
}

func (r *recorder) said() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

type panicky struct{}

func (panicky) Speak(string) { panic("speech engine exploded") }
func (panicky) Silence()     { panic("speech engine exploded") }

func testPreset(max, repeat, speed, interval int) preset.Preset {
	return preset.Preset{Label: "Test", MaxCount: max, RepeatCount: repeat, Speed: speed, Interval: interval, CustomText: "Set"}
}

func collect(t *testing.T, s *Session) []Event {
	t.Helper()
	var events []Event
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	Drain(ctx, s, func(e Event) { events = append(events, e) })
	require.NoError(t, ctx.Err(), "session did not finish in time")
	return events
}

func withoutRest(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind != EventResting {
			out = append(out, e)
		}
	}
	return out
}

// ============================================================
// Full run
// ============================================================

func TestSessionEventSequence(t *testing.T) {
	rec := &recorder{}
	s, err := New(testPreset(3, 2, 1, 1), rec, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	events := collect(t, s)

	type step struct {
		kind    EventKind
		rep     int
		num     int
		percent int
	}
	want := []step{
		{kind: EventSetAnnounced, rep: 1},
		{kind: EventNumberAnnounced, rep: 1, num: 1}, {kind: EventProgressChanged, percent: 16},
		{kind: EventNumberAnnounced, rep: 1, num: 2}, {kind: EventProgressChanged, percent: 33},
		{kind: EventNumberAnnounced, rep: 1, num: 3}, {kind: EventProgressChanged, percent: 50},
		{kind: EventSetAnnounced, rep: 2},
		{kind: EventNumberAnnounced, rep: 2, num: 1}, {kind: EventProgressChanged, percent: 66},
		{kind: EventNumberAnnounced, rep: 2, num: 2}, {kind: EventProgressChanged, percent: 83},
		{kind: EventNumberAnnounced, rep: 2, num: 3}, {kind: EventProgressChanged, percent: 100},
		{kind: EventCompleted},
	}

	got := withoutRest(events)
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, got[i].Kind, "event %d", i)
		switch w.kind {
		case EventSetAnnounced:
			assert.Equal(t, w.rep, got[i].Rep)
			assert.Equal(t, 2, got[i].Total)
		case EventNumberAnnounced:
			assert.Equal(t, w.rep, got[i].Rep)
			assert.Equal(t, w.num, got[i].Number)
			assert.Equal(t, 3, got[i].MaxCount)
			assert.True(t, got[i].Spoken)
		case EventProgressChanged:
			assert.Equal(t, w.percent, got[i].Percent)
		}
	}

	// Exactly one rest, between the two sets.
	var restAt []int
	for i, e := range events {
		if e.Kind == EventResting {
			restAt = append(restAt, i)
			assert.Equal(t, 1, e.Remaining)
		}
	}
	require.Len(t, restAt, 1)
	assert.Equal(t, EventSetAnnounced, events[restAt[0]+1].Kind)
	assert.Equal(t, EventProgressChanged, events[restAt[0]-1].Kind)

	assert.Equal(t, []string{"Set 1", "1", "2", "3", "Set 2", "1", "2", "3", CompletionPhrase}, rec.said())

	snap := s.Snapshot()
	assert.Equal(t, StateCompleted, snap.State)
	assert.False(t, snap.Running())
	assert.Equal(t, 100, snap.Percent())
	assert.Equal(t, 6, snap.CompletedUnits)
	assert.Equal(t, 2, snap.CurrentRep)
	assert.Equal(t, 3, snap.CurrentNumber)
}

func TestSessionSpeaksOnlyPacedNumbers(t *testing.T) {
	rec := &recorder{}
	s, err := New(testPreset(10, 1, 7, 0), rec, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	events := collect(t, s)

	var numbers, spoken int
	for _, e := range events {
		if e.Kind == EventNumberAnnounced {
			numbers++
			if e.Spoken {
				spoken++
			}
		}
	}
	assert.Equal(t, 10, numbers, "every number is displayed")
	assert.Equal(t, 2, spoken)
	assert.Equal(t, []string{"Set 1", "5", "10", CompletionPhrase}, rec.said())
}

func TestSessionRestCountdown(t *testing.T) {
	s, err := New(testPreset(1, 2, 10, 3), nil, Options{Unit: 5 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var rests []int
	Drain(context.Background(), s, func(e Event) {
		if e.Kind == EventResting {
			rests = append(rests, e.Remaining)
		}
	})

	require.NotEmpty(t, rests)
	assert.Equal(t, 3, rests[0])
	for i := 1; i < len(rests); i++ {
		assert.Less(t, rests[i], rests[i-1], "countdown is strictly decreasing")
	}
	assert.GreaterOrEqual(t, rests[len(rests)-1], 1)
}

func TestSessionZeroIntervalStillRests(t *testing.T) {
	s, err := New(testPreset(1, 2, 10, 0), nil, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var rests []int
	for _, e := range collect(t, s) {
		if e.Kind == EventResting {
			rests = append(rests, e.Remaining)
		}
	}
	assert.Equal(t, []int{0}, rests)
}

func TestSessionNoRestAfterLastSet(t *testing.T) {
	s, err := New(testPreset(2, 1, 10, 600), nil, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	for _, e := range collect(t, s) {
		assert.NotEqual(t, EventResting, e.Kind)
	}
	assert.Equal(t, StateCompleted, s.State())
}

// ============================================================
// Stop
// ============================================================

func TestSessionStopDuringCounting(t *testing.T) {
	rec := &recorder{}
	s, err := New(testPreset(10, 3, 1, 60), rec, Options{Unit: 100 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var after []Event
	stopped := false
	Drain(context.Background(), s, func(e Event) {
		if stopped {
			after = append(after, e)
			return
		}
		if e.Kind == EventProgressChanged && e.Percent == 6 { // second number of set 1
			s.RequestStop()
			stopped = true
		}
	})

	require.Len(t, after, 1)
	assert.Equal(t, EventStopped, after[0].Kind)

	snap := s.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, 1, snap.CurrentRep)
	assert.Equal(t, 2, snap.CurrentNumber)
	assert.Equal(t, 2, snap.CompletedUnits)
	assert.Equal(t, 1, rec.silenced)
	assert.NotContains(t, rec.said(), CompletionPhrase)
}

func TestSessionStopDuringRestIsPrompt(t *testing.T) {
	s, err := New(testPreset(1, 2, 10, 600), nil, Options{Unit: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	var stopAt time.Time
	Drain(context.Background(), s, func(e Event) {
		if e.Kind == EventResting && stopAt.IsZero() {
			stopAt = time.Now()
			s.RequestStop()
		}
	})

	assert.Less(t, time.Since(stopAt), time.Second, "rest must be interruptible")
	assert.Equal(t, StateStopped, s.State())
}

func TestSessionRequestStopIdempotent(t *testing.T) {
	s, err := New(testPreset(5, 1, 1, 0), nil, Options{Unit: time.Hour})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	first := <-s.Events()
	require.Equal(t, EventSetAnnounced, first.Kind)

	s.RequestStop()
	<-s.Done()
	s.RequestStop()
	s.RequestStop()

	kinds := []EventKind{first.Kind}
	for e := range s.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventSetAnnounced, EventStopped}, kinds)
	assert.Equal(t, StateStopped, s.State())
}

func TestSessionStopBeforeStart(t *testing.T) {
	s, err := New(testPreset(5, 1, 1, 0), nil, Options{})
	require.NoError(t, err)

	s.RequestStop()
	assert.Equal(t, StateStopped, s.State())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)

	var kinds []EventKind
	for e := range s.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventStopped}, kinds)
}

func TestSessionStopAfterCompletionIsNoop(t *testing.T) {
	s, err := New(testPreset(1, 1, 10, 0), nil, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	events := collect(t, s)

	s.RequestStop()
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, EventCompleted, events[len(events)-1].Kind)
}

func TestDrainCancelStops(t *testing.T) {
	s, err := New(testPreset(10, 1, 1, 0), nil, Options{Unit: time.Hour})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	ctx, cancel := context.WithCancel(context.Background())
	var last Event
	state := Drain(ctx, s, func(e Event) {
		last = e
		if e.Kind == EventSetAnnounced {
			cancel()
		}
	})

	assert.Equal(t, StateStopped, state)
	assert.Equal(t, EventStopped, last.Kind)
}

// ============================================================
// Construction & misc
// ============================================================

func TestNewRejectsInvalidPreset(t *testing.T) {
	_, err := New(testPreset(0, 1, 1, 0), nil, Options{})
	var verr *preset.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "maxCount", verr.Field)
}

func TestStartTwice(t *testing.T) {
	s, err := New(testPreset(1, 1, 10, 0), nil, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
	collect(t, s)
}

func TestAnnouncerPanicsAreSwallowed(t *testing.T) {
	s, err := New(testPreset(3, 2, 1, 0), panicky{}, Options{Unit: time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	events := collect(t, s)
	assert.Equal(t, EventCompleted, events[len(events)-1].Kind)
}

func TestSnapshotBeforeStart(t *testing.T) {
	s, err := New(testPreset(4, 2, 1, 0), nil, Options{})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateCreated, snap.State)
	assert.Equal(t, 8, snap.TotalUnits)
	assert.Equal(t, 0, snap.Percent())
	assert.Equal(t, time.Duration(0), snap.Elapsed)
	assert.NotEmpty(t, s.ID())
	s.RequestStop()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateCompleted.Terminal())
	assert.False(t, StateRunning.Terminal())
}
