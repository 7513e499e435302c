package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Run-fatal errors, abort the pass before any dispatch
	ErrAuth           = fmt.Errorf("authentication rejected")
	ErrTransientFetch = fmt.Errorf("transient fetch failure")

	// Per-item errors, recorded in the report without aborting the run
	ErrClassification = fmt.Errorf("media kind could not be determined")
	ErrManagerAPI     = fmt.Errorf("manager API request failed")
)
