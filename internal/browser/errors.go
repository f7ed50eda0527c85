package browser

import "fmt"

// ExtractionError is a fatal session failure: launch, context setup or
// navigation. It carries the target URL and the underlying cause.
type ExtractionError struct {
	URL string
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
