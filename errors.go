package silo

import "fmt"

// QueryParseError reports a malformed or invalid query: unknown node type,
// missing field, out-of-range position, unknown column or segment. Always a
// client fault.
type QueryParseError struct {
	Msg   string
	Cause error
}

func (e *QueryParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *QueryParseError) Unwrap() error { return e.Cause }

// NewQueryParseError formats a QueryParseError.
func NewQueryParseError(format string, args ...any) *QueryParseError {
	return &QueryParseError{Msg: fmt.Sprintf(format, args...)}
}

// InternalError reports an invariant violation inside the engine. Always a
// bug; logged with full context, the query fails.
type InternalError struct {
	Msg   string
	Cause error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Msg, e.Cause)
	}
	return "internal error: " + e.Msg
}

func (e *InternalError) Unwrap() error { return e.Cause }

// NewInternalError formats an InternalError.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// PreprocessingError reports invalid build input: schema violations,
// sequence length mismatches, duplicate primary keys. The build aborts
// without touching an existing snapshot.
type PreprocessingError struct {
	Msg   string
	Cause error
}

func (e *PreprocessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *PreprocessingError) Unwrap() error { return e.Cause }

// NewPreprocessingError formats a PreprocessingError.
func NewPreprocessingError(format string, args ...any) *PreprocessingError {
	return &PreprocessingError{Msg: fmt.Sprintf(format, args...)}
}
