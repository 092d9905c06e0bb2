package recommend

import "fmt"

// NotFoundError reports an id absent from the similarity index or catalog.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("movie %d not found", e.ID)
}

// ComputationError wraps an unexpected failure while assembling a bundle.
type ComputationError struct {
	ID  int
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("recommendation for movie %d failed: %v", e.ID, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
