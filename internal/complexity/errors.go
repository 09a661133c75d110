package complexity

import "fmt"

// StructuralError reports a missing type entry or field descriptor in the
// weight table for a field the query actually selects, so the gate can
// surface a clean error response instead of a panic.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return fmt.Sprintf("complexity: %s", e.Reason) }

func newStructuralError(format string, args ...any) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// DepthLimitError is raised when the selection-set nesting exceeds the
// configured depth limit.
type DepthLimitError struct {
	Limit int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("complexity: selection depth exceeds configured limit of %d", e.Limit)
}

// AmbiguousOperationError is raised when a document has more than one
// operation and no operationName was given to disambiguate.
type AmbiguousOperationError struct{}

func (e *AmbiguousOperationError) Error() string {
	return "complexity: document defines multiple operations; operationName is required"
}

// OperationNotFoundError is raised when operationName does not match any
// operation in the document.
type OperationNotFoundError struct {
	Name string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("complexity: operation %q not found in document", e.Name)
}
