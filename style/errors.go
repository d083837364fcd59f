package style

import "errors"

var (
	// ErrStyleNotFound is returned by Registry.Lookup for unknown names.
	ErrStyleNotFound = errors.New("style not found")
	// ErrMalformedRecord is returned when a persisted record is missing its
	// mandatory name field. It is local to the one record, batch loading
	// continues past it.
	ErrMalformedRecord = errors.New("malformed style record")
	// ErrPersistence wraps underlying storage failures while writing the
	// registry file.
	ErrPersistence = errors.New("persistence failure")
)
