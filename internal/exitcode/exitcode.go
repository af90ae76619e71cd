// Package exitcode defines the CLI's process exit codes.
package exitcode

const (
	Success = 0

	// UserError: bad arguments, unknown command or flag, missing or
	// ambiguous task reference.
	UserError = 1

	// AuthError: sign-in failed or remote sync is not configured.
	AuthError = 2

	// BackendError: storage or network failure.
	BackendError = 3
)
