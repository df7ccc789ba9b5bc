package catalog

import "fmt"

// RequestError is the terminal failure of a catalog search request after all
// retries are spent: timeouts, connection failures, and non-2xx responses.
// The resolver treats it as "no candidates for this term", never as a batch
// failure.
type RequestError struct {
	Term       string
	URL        string
	StatusCode int // zero when the failure happened before a response
	Attempts   int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("catalog search %q failed with status %d after %d attempts", e.Term, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("catalog search %q failed after %d attempts: %v", e.Term, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
