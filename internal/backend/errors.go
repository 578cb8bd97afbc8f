package backend

import "errors"

// Error taxonomy for platform calls. Callers branch with errors.Is; the local
// API maps each to a distinct machine-readable code so the shell can offer
// the right recovery ("move closer and retry" is not "retry blindly").
var (
	// ErrUnauthorized means the platform rejected the bearer token. Fatal
	// to the session; never retried with the same token.
	ErrUnauthorized = errors.New("platform rejected the session token")

	// ErrLocationMismatch means the platform judged the submitted fix to
	// be outside the shift's geofence. Recoverable by moving and retrying.
	ErrLocationMismatch = errors.New("location outside the shift geofence")

	// ErrValidation means the platform rejected the request as invalid.
	ErrValidation = errors.New("platform rejected the request")

	// ErrNotFound means the requested resource does not exist upstream.
	ErrNotFound = errors.New("resource not found on the platform")

	// ErrTransient covers network failures and 5xx responses. The caller's
	// state is unchanged and an explicit user retry is safe.
	ErrTransient = errors.New("transient platform error")
)
