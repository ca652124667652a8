package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, unknown dashboard)
	ExitDataError   = 3 // Data error (unreadable or malformed dataset)
	ExitRemoteError = 4 // Remote service error (GitHub unreachable, rate limited)
)
