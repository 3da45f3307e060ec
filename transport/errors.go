// ABOUTME: Error taxonomy for outbound HTTP calls
// ABOUTME: Classifies failures as network, non-200 status, or undecodable body
package transport

import "fmt"

// NetworkError is a transport-level failure (DNS, TLS, connection reset, timeout).
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// HTTPStatusError is returned when the server answers with anything but 200.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status: %d", e.URL, e.Status)
}

// DecodeError is returned when a 200 response body is not valid JSON.
type DecodeError struct {
	URL   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse JSON response from %s: %v", e.URL, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
