package cfr

import "fmt"

// InvariantError reports a configuration or invariant violation: a dimension
// or owning-player mismatch at an infoset, or a checkpoint whose version or
// array shapes do not match. Action indices and strategy-row normalization
// are not checked, so neither raises an InvariantError. These are
// unrecoverable — the caller should abort rather than attempt to continue
// training on a possibly-corrupt table.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("cfr: invariant violation in %s: %s", e.Op, e.Msg)
}

func invariantf(op, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
