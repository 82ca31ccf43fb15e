package counter

import "time"

// EventKind tags an Event.
type EventKind string

const (
	EventSetAnnounced    EventKind = "set_announced"
	EventNumberAnnounced EventKind = "number_announced"
	EventResting         EventKind = "resting"
	EventProgressChanged EventKind = "progress_changed"
	EventCompleted       EventKind = "completed"
	EventStopped         EventKind = "stopped"
)

// Event notifies a presentation of a session state change. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind EventKind

	Rep   int // SetAnnounced, NumberAnnounced
	Total int // SetAnnounced: number of sets

	Number   int  // NumberAnnounced
	MaxCount int  // NumberAnnounced
	Spoken   bool // NumberAnnounced

	Remaining int // Resting: seconds left
	Percent   int // ProgressChanged

	At time.Time
}

// Terminal reports whether the event ends the session.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventStopped
}
