package remote

import "fmt"

// ErrMissingID means a decoded comment has no _id and cannot be keyed.
var ErrMissingID = fmt.Errorf("response without _id")

// NetworkError means the request never reached the comments service or no
// response came back.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError means the service answered with a non-2xx status, with a body
// that could not be decoded or with a comment lacking its ID.
type ServerError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
