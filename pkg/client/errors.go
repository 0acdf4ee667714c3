package client

import "fmt"

// NetworkError is a transport failure or a non-2xx response on a REST call.
// Status is zero when the request never produced a response.
type NetworkError struct {
	Status int
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("http error status=%d url=%s", e.Status, e.URL)
	}
	return fmt.Sprintf("request failed url=%s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is a malformed payload: the request succeeded but the body did
// not decode into the expected shape.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response url=%s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError is a failed alert-resolve mutation. Local alert state is
// never touched when one of these is returned.
type ResolutionError struct {
	AlertID int
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve alert id=%d: %v", e.AlertID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
