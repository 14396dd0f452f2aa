package main

// Exit codes
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (I/O, unexpected runtime failure)
	ExitConfigError       = 2 // Invalid configuration or argument
	ExitAuthError         = 3 // ADS rejected the token
	ExitMissingCredential = 4 // No token stored and none could be requested
	ExitProtocolError     = 5 // ADS response lacked expected fields
	ExitTransformError    = 6 // Journal name transformation failed
)
