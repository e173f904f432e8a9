package outline

import "fmt"

// ParseError represents a failure to extract any usable sections from
// outline text.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("outline parse error: %s", e.Message)
}
