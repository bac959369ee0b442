package parser

import "fmt"

// NotFoundError reports a requirement document that could not be found.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("requirements file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// PatternError reports a configured sentence pattern that failed to compile.
type PatternError struct {
	Name    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Name, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
