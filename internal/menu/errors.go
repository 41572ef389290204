package menu

import "fmt"

// RetryError tells the engine to show Message and keep waiting on the same
// session. It is the only error a session swallows without terminating.
type RetryError struct {
	Message string
}

func (e *RetryError) Error() string { return "retry: " + e.Message }

// Retry builds a RetryError.
func Retry(format string, args ...any) error {
	return &RetryError{Message: fmt.Sprintf(format, args...)}
}

// PageOutOfRangeError is returned by a page provider for an index outside
// [Min, Max].
type PageOutOfRangeError struct {
	Min, Max int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page out of range [%d, %d]", e.Min, e.Max)
}

// Count is the number of pages in range.
func (e *PageOutOfRangeError) Count() int { return e.Max - e.Min + 1 }
