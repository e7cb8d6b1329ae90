package projection

import "errors"

var (
	// ErrAgentNotFound indicates no agent exists with the requested ID.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrIncompleteVariables indicates the agent lacks the variables needed for a projection.
	ErrIncompleteVariables = errors.New("agent projection variables are incomplete")
)
