package scene

import (
	"errors"
	"fmt"
)

// Scene errors.
var (
	ErrStructuralInvariant = errors.New("structural invariant violation")
	ErrDuplicateGroupName  = errors.New("duplicate physical group name")
	ErrInvalidGroupIndex   = errors.New("invalid physical group index")
	ErrInvalidGroupName    = errors.New("invalid physical group name")
	ErrGroupNotFound       = errors.New("physical group not found")
	ErrUnknownNode         = errors.New("unknown node")
	ErrRootNode            = errors.New("operation not allowed on root node")
	ErrInvalidMeshIndex    = errors.New("invalid mesh index")
	ErrUnknownInstance     = errors.New("unknown mesh instance")
	ErrInvalidFaceIndex    = errors.New("invalid face index")
)

// InvariantError describes one structural invariant violation found by
// Model.Validate. It matches ErrStructuralInvariant with errors.Is.
type InvariantError struct {
	Where  string // e.g. "mesh 2 triangle 7"
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrStructuralInvariant, e.Where, e.Reason)
}

// Unwrap returns ErrStructuralInvariant.
func (e *InvariantError) Unwrap() error {
	return ErrStructuralInvariant
}

func violation(reason string, format string, args ...any) error {
	return &InvariantError{Where: fmt.Sprintf(format, args...), Reason: reason}
}
