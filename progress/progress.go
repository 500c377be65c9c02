// Package progress is the observational side channel of graph builds and path searches
package progress

// Event is a single progress notification.
// Build milestones carry a Message, search notifications carry Checked
type Event struct {
	Message string `json:"message,omitempty"`
	Checked int    `json:"checked,omitempty"`
}

// Observer receives progress notifications. Implementations must not block
type Observer interface {
	Notify(Event)
}

// Func adapts a plain function into an Observer
type Func func(Event)

func (f Func) Notify(e Event) {
	f(e)
}

// Nop is the default observer, dropping all events
var Nop Observer = Func(func(Event) {})

// OrNop returns the observer, or Nop if nil
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop
	}

	return o
}
