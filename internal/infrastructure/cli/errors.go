package cli

import (
	"errors"
	"fmt"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
	"github.com/agentroi/runrate/pkg/storage"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var transErr *goal.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(
			transErr.Error(),
			fmt.Sprintf("Goal '%s' is '%s'; closed goals can only be reopened to on_track", transErr.GoalID, transErr.From),
			err,
		)
	}

	switch {
	case errors.Is(err, storage.ErrNotInitialized):
		return NewCLIError("workspace not initialized", "Run 'runrate init' to create .runrate/", err)
	case errors.Is(err, projection.ErrAgentNotFound):
		return NewCLIError("agent not found", "Run 'runrate project' to list agents", err)
	case errors.Is(err, projection.ErrIncompleteVariables):
		return NewCLIError("agent has incomplete variables", "Record minutes with and without the agent and a usage count, then re-import", err)
	case errors.Is(err, goal.ErrGoalNotFound):
		return NewCLIError("goal not found", "Run 'runrate goals list' to see goal IDs", err)
	case errors.Is(err, goal.ErrInvalidGoal):
		return NewCLIError("invalid goal", "Valid statuses: on_track, at_risk, behind, achieved, cancelled", err)
	case errors.Is(err, application.ErrSchemaInvalid):
		return NewCLIError("import rejected", "Check field names and types against the import schema", err)
	}

	return err
}
