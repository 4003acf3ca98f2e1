package cursorapi

import "fmt"

// StatusError is returned for any non-2xx response from the Cursor API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cursor api: HTTP %d", e.Code)
	}
	return fmt.Sprintf("cursor api: HTTP %d: %s", e.Code, e.Body)
}

// DecodeError is returned when a response body fails schema decoding.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "cursor api: decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
