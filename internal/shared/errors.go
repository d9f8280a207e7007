package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Sync failure taxonomy. Conflicts are recovered inside the store and
	// never escape it; the remaining three decide whether a run item is
	// skipped, the run fails, or a mirror write is recorded and ignored.
	ErrConflict        = fmt.Errorf("uniqueness conflict")
	ErrMalformedRecord = fmt.Errorf("malformed remote record")
	ErrTransport       = fmt.Errorf("remote catalog request failed")
	ErrPersistence     = fmt.Errorf("persistence failure")

	// Catalog and lookup errors
	ErrCatalogUnavailable = fmt.Errorf("remote catalog unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
