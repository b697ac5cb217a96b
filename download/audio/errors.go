package audio

import "fmt"

// ExtractionError represents a failure inside the stream extraction step.
type ExtractionError struct {
	Message  string
	Original error
}

func (e *ExtractionError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Original
}

// TimeoutError is returned when extraction does not finish before the
// request deadline. The underlying yt-dlp process has been killed.
type TimeoutError struct {
	Message  string
	Original error
}

func (e *TimeoutError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

func (e *TimeoutError) Unwrap() error {
	return e.Original
}
