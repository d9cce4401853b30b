// Package app defines the runtime contract shared by the cmd/* binaries:
// the API server and the migration runner both start through a Runner, so
// main stays free of wiring details.
package app

// Runner represents a runnable application component.
type Runner interface {
	Run() error
}
