package sentry

import "fmt"

// FetchError reports an events request that exhausted its retry budget.
type FetchError struct {
	// Attempts is how many requests were made before giving up.
	Attempts int
	// Status is the HTTP status of the last response, or 0 when the last
	// attempt failed at the transport layer.
	Status int
	// Err is the last transport error, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching events failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetching events failed after %d attempts: backend returned status %d", e.Attempts, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx events response whose body could not be parsed.
// Malformed payloads are not retried; the backend answered, the data is bad.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding events response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
