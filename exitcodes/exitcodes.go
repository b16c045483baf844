// Package exitcodes defines the standard exit codes used by ui-acceptor.
package exitcodes

// Exit code constants used by ui-acceptor
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every case passes
// * TestFailure (1): Used when one or more cases fail
// * RuntimeErr (2): Used for run-fatal errors such as an unreachable target or bad configuration
const (
	Success     = 0 // All cases pass
	TestFailure = 1 // Case failures
	RuntimeErr  = 2 // Runtime errors, navigation failures
)
