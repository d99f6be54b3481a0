package fetcher

import "fmt"

// TransportError covers timeouts, connection failures, and non-2xx
// responses: the document never arrived.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ShapeError covers bodies that arrived but could not be decoded as a
// catalog document.
type ShapeError struct {
	URL string
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }
