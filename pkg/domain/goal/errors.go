package goal

import "errors"

var (
	// ErrGoalNotFound indicates no goal exists with the requested ID.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrInvalidTransition indicates the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid goal status transition")

	// ErrInvalidGoal indicates the goal record fails validation.
	ErrInvalidGoal = errors.New("invalid goal")
)

// TransitionError provides details about a rejected status change.
type TransitionError struct {
	GoalID string
	From   Status
	To     Status
	Event  string
}

func (e *TransitionError) Error() string {
	return "cannot move goal " + e.GoalID + " from " + string(e.From) + " to " + string(e.To) + " via " + e.Event
}

// Is allows errors.Is to match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
