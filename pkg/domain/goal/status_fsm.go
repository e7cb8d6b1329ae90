package goal

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit. They must match the Status values.
const (
	StateOnTrack   = "on_track"
	StateAtRisk    = "at_risk"
	StateBehind    = "behind"
	StateAchieved  = "achieved"
	StateCancelled = "cancelled"
)

// Events accepted by the status machine.
const (
	EventTrack   = "track"
	EventRisk    = "flag_risk"
	EventBehind  = "fall_behind"
	EventAchieve = "achieve"
	EventCancel  = "cancel"
	EventReopen  = "reopen"
)

func init() {
	stateMap := map[string]Status{
		StateOnTrack:   StatusOnTrack,
		StateAtRisk:    StatusAtRisk,
		StateBehind:    StatusBehind,
		StateAchieved:  StatusAchieved,
		StateCancelled: StatusCancelled,
	}
	for fsmState, status := range stateMap {
		if fsmState != string(status) {
			panic(fmt.Sprintf("FSM state %q does not match Status %q", fsmState, status))
		}
	}
}

// StatusContext carries the goal identity and an optional policy guard.
type StatusContext struct {
	GoalID string
	Guard  func(goalID string, event string) bool
}

// StatusMachine validates status changes requested for a goal.
type StatusMachine struct {
	goalID      string
	interpreter *statekit.Interpreter[StatusContext]
}

// NewStatusMachine starts a machine in the given status. An empty status
// starts in on_track. A nil guard allows every event.
func NewStatusMachine(initial Status, goalID string, guard func(string, string) bool) (*StatusMachine, error) {
	if initial == "" {
		initial = StatusOnTrack
	}
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidGoal, initial)
	}
	if guard == nil {
		guard = func(string, string) bool { return true }
	}

	builder := statekit.NewMachine[StatusContext]("goal-status").
		WithInitial(statekit.StateID(initial)).
		WithContext(StatusContext{GoalID: goalID, Guard: guard}).
		WithGuard("policyGuard", func(ctx StatusContext, e statekit.Event) bool {
			return ctx.Guard(ctx.GoalID, string(e.Type))
		})

	builder.State(StateOnTrack).
		On(EventRisk).Target(StateAtRisk).
		On(EventBehind).Target(StateBehind).
		On(EventAchieve).Target(StateAchieved).Guard("policyGuard").
		On(EventCancel).Target(StateCancelled).
		Done()

	builder.State(StateAtRisk).
		On(EventTrack).Target(StateOnTrack).
		On(EventBehind).Target(StateBehind).
		On(EventAchieve).Target(StateAchieved).Guard("policyGuard").
		On(EventCancel).Target(StateCancelled).
		Done()

	builder.State(StateBehind).
		On(EventTrack).Target(StateOnTrack).
		On(EventRisk).Target(StateAtRisk).
		On(EventAchieve).Target(StateAchieved).Guard("policyGuard").
		On(EventCancel).Target(StateCancelled).
		Done()

	builder.State(StateAchieved).
		On(EventReopen).Target(StateOnTrack).Guard("policyGuard").
		Done()

	builder.State(StateCancelled).
		On(EventReopen).Target(StateOnTrack).Guard("policyGuard").
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build goal status machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StatusMachine{goalID: goalID, interpreter: interpreter}, nil
}

// Current returns the current status.
func (sm *StatusMachine) Current() Status {
	return Status(sm.interpreter.State().Value)
}

// Send applies an event. An event that leaves the state unchanged was either
// not allowed from the current state or rejected by the guard.
func (sm *StatusMachine) Send(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	return &TransitionError{GoalID: sm.goalID, From: before, To: targetOf(before, event), Event: event}
}

// TransitionTo moves the goal to the target status using the matching event.
func (sm *StatusMachine) TransitionTo(target Status) error {
	from := sm.Current()
	if from == target {
		return nil
	}
	event, ok := EventFor(from, target)
	if !ok {
		return &TransitionError{GoalID: sm.goalID, From: from, To: target, Event: "none"}
	}
	return sm.Send(event)
}

// EventFor returns the event that moves a goal from one status to another.
func EventFor(from, to Status) (string, bool) {
	switch to {
	case StatusOnTrack:
		if from.IsOpen() {
			return EventTrack, true
		}
		if from == StatusAchieved || from == StatusCancelled {
			return EventReopen, true
		}
	case StatusAtRisk:
		return EventRisk, from.IsOpen()
	case StatusBehind:
		return EventBehind, from.IsOpen()
	case StatusAchieved:
		return EventAchieve, from.IsOpen()
	case StatusCancelled:
		return EventCancel, from.IsOpen()
	}
	return "", false
}

func targetOf(from Status, event string) Status {
	switch event {
	case EventTrack, EventReopen:
		return StatusOnTrack
	case EventRisk:
		return StatusAtRisk
	case EventBehind:
		return StatusBehind
	case EventAchieve:
		return StatusAchieved
	case EventCancel:
		return StatusCancelled
	}
	return from
}
