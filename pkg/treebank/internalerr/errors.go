package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrDuplicate        = errors.New("duplicate")

	// ErrMalformedField marks a missing column or a column that fails to parse.
	ErrMalformedField = errors.New("malformed field")

	// ErrStructural marks parallel data that cannot be aligned, e.g. ragged
	// feature lists in discourse mode.
	ErrStructural = errors.New("structural inconsistency")
)
