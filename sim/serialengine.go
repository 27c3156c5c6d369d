package sim

import (
	"log"
	"reflect"
	"sync"
)

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller

	// Schedule registers an event to happen in the future.
	Schedule(e Event)

	// Run processes all the events until the queue drains or a handler
	// fails.
	Run() error
}

// A SerialEngine is an Engine that always run events one after another.
type SerialEngine struct {
	HookableBase

	timeLock sync.RWMutex
	time     VTime

	queue EventQueue

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)
	e.queue = NewEventQueue()
	return e
}

// Schedule register an event to be happen in the future.
func (e *SerialEngine) Schedule(evt Event) {
	if evt.Time() < e.CurrentTime() {
		log.Panic("scheduling an event earlier than current time")
	}

	e.queue.Push(evt)
}

// CurrentTime returns the current time of the engine.
func (e *SerialEngine) CurrentTime() VTime {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()
	return t
}

func (e *SerialEngine) writeNow(t VTime) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine. Unlike a
// hardware-timing engine, a handler error here is fatal: the first non-nil
// error stops the run and is returned to the caller with no further events
// processed.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for e.queue.Len() > 0 {
		evt := e.queue.Pop()
		if evt.Time() < e.CurrentTime() {
			log.Panicf(
				"cannot run event in the past, evt %s @ %d, now %d",
				reflect.TypeOf(evt), evt.Time(), e.CurrentTime(),
			)
		}
		e.writeNow(evt.Time())

		hookCtx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(hookCtx)

		handler := evt.Handler()
		if err := handler.Handle(evt); err != nil {
			return err
		}

		hookCtx.Pos = HookPosAfterEvent
		e.InvokeHook(hookCtx)
	}

	return nil
}
