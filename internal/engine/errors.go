package engine

import "errors"

// ErrConflict reports a lost race: the task changed between the read and
// the conditional write. Callers retry against fresh state.
var ErrConflict = errors.New("modified concurrently")

var ErrNotFound = errors.New("not found")

// ErrForbidden reports a capability violation for the acting role.
var ErrForbidden = errors.New("operation not permitted")
