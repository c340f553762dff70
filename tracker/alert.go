package tracker

type AlertPriority int

const (
	None AlertPriority = iota
	Info
	Warning
	Error
)

// Alert is a non-fatal diagnostic from the player or a voice, e.g. a sample
// file that failed to load. Alerts never stop playback; they are sent to
// the model side for display.
type Alert struct {
	Name     string
	Message  string
	Priority AlertPriority
}
