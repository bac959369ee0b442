package models

import "fmt"

// OptionsError reports invalid generation options.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid options: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid options: %s", e.Reason)
}
