package run

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Event types for the run lifecycle machine.
const (
	eventStart    = "START"
	eventComplete = "COMPLETE"
	eventAbort    = "ABORT"
)

// lifecycleContext is the statekit context for one run.
type lifecycleContext struct {
	RunID string
}

// lifecycle wraps the statekit interpreter tracking a run through
// idle -> running -> completed | aborted.
type lifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
}

// newLifecycle builds and starts the run lifecycle machine.
func newLifecycle(runID string) (*lifecycle, error) {
	machine, err := statekit.NewMachine[lifecycleContext]("update-run").
		WithInitial(statekit.StateID(StatusIdle)).
		WithContext(lifecycleContext{RunID: runID}).
		State(statekit.StateID(StatusIdle)).
		On(eventStart).Target(statekit.StateID(StatusRunning)).Done().
		State(statekit.StateID(StatusRunning)).
		On(eventComplete).Target(statekit.StateID(StatusCompleted)).
		On(eventAbort).Target(statekit.StateID(StatusAborted)).Done().
		State(statekit.StateID(StatusCompleted)).Done().
		State(statekit.StateID(StatusAborted)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &lifecycle{interp: interp}, nil
}

// send dispatches an event to the machine.
func (l *lifecycle) send(event string) {
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

// status returns the machine's current state. The machine, not the caller,
// decides whether a transition took effect.
func (l *lifecycle) status() Status {
	return Status(l.interp.State().Value)
}

// stop shuts down the interpreter.
func (l *lifecycle) stop() {
	l.interp.Stop()
}
