package verifier

import "fmt"

// TransportError reports that the peer could not be reached: connection
// refused, DNS failure, timeout, or a broken response stream.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports that the peer answered, but not with a usable
// verification result (non-2xx status or a body that is not JSON).
type RemoteError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error from %s: status %d: %s", e.URL, e.StatusCode, e.Reason)
}
