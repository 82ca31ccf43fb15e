package counter

// Announcer renders text as speech. Implementations are best-effort: Speak
// must return promptly and must not fail the caller, and Silence cancels
// whatever is still being spoken.
type Announcer interface {
	Speak(text string)
	Silence()
}

// NopAnnouncer is used when no speech capability is available.
type NopAnnouncer struct{}

func (NopAnnouncer) Speak(string) {}
func (NopAnnouncer) Silence()     {}

// AnnouncerFunc adapts a function to the Announcer interface.
type AnnouncerFunc func(text string)

func (f AnnouncerFunc) Speak(text string) { f(text) }
func (f AnnouncerFunc) Silence()          {}
