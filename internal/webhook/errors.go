package webhook

import "fmt"

// NetworkError is a failed exchange that never produced an HTTP response:
// connection failures, timeouts and cancelled requests.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("webhook %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseFormatError is a response that is not a success: non-2xx status,
// a body that is not JSON, or JSON without a string "reply".
type ResponseFormatError struct {
	Status int
	Reason string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook response (status %d): %s: %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("webhook response (status %d): %s", e.Status, e.Reason)
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }
