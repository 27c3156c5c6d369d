package sim

// VTime is the logical time of the simulated machine, counted in ticks. The
// replay advances the clock by exactly one tick per processed event.
type VTime int64

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the time that the event should happen.
	Time() VTime

	// Handler returns the handler that should handle the event.
	Handler() Handler
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	time    VTime
	handler Handler
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTime, handler Handler) EventBase {
	return EventBase{time: t, handler: handler}
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() VTime {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// A Handler defines a domain for the events.
//
// An event can only be scheduled by its handler and can only directly modify
// that handler's state. A handler error is fatal: it stops the engine and is
// returned from Run.
type Handler interface {
	Handle(e Event) error
}

// A TimeTeller can tell the current time.
type TimeTeller interface {
	CurrentTime() VTime
}
