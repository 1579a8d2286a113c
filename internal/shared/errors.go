package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Domain errors. Callers classify failures with errors.Is.
	ErrValidation    = fmt.Errorf("validation failed")
	ErrNotFound      = fmt.Errorf("not found")
	ErrRemoteService = fmt.Errorf("remote media service failed")
	ErrStorage       = fmt.Errorf("storage failure")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
