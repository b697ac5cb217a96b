package deezer

import "fmt"

// LookupError represents a failed metadata search. It is never returned by
// Lookup; it only reaches the logs.
type LookupError struct {
	Message  string
	Original error
}

func (e *LookupError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Deezer lookup error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Deezer lookup error: %s", e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Original
}
