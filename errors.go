package drover

import "errors"

var (
	// Store errors.
	ErrNoStore          = errors.New("drover: no instance store configured")
	ErrInstanceNotFound = errors.New("drover: workflow instance not found")
	ErrInstanceExists   = errors.New("drover: workflow instance already exists")

	// Definition errors.
	ErrNoDefinition       = errors.New("drover: no workflow definition supplied")
	ErrDefinitionNotFound = errors.New("drover: workflow definition not registered")

	// State machine errors.
	ErrInvalidTransition = errors.New("drover: invalid status for transition")
	ErrRetryLimit        = errors.New("drover: retry limit reached")
	ErrInvalidArguments  = errors.New("drover: incorrect number of arguments")
	ErrNoStateStarted    = errors.New("drover: no state instance has been started")
)
