package reader

import "fmt"

// ParseError locates a fatal format error in the input. Err wraps one of the
// internalerr sentinels.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Column != "" {
		return fmt.Sprintf("%s:%d: %s: %v", path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
