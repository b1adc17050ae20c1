package layout

import (
	"fmt"
	"strings"

	"ember/internal/types"
)

// ErrorKind enumerates types of layout calculation errors.
type ErrorKind uint8

const (
	// ErrRecursiveUnsized indicates a value-recursive type with no fixed size.
	ErrRecursiveUnsized ErrorKind = iota + 1
	// ErrDynamicSize indicates a type whose size depends on a bound type
	// parameter; the caller must fall back to runtime type information.
	ErrDynamicSize
	// ErrNoLayout indicates a type that has no in-memory layout at all
	// (opaque runtime types outside a pointer).
	ErrNoLayout
)

// Error represents a failure during memory layout calculation.
type Error struct {
	Kind  ErrorKind
	Type  types.TypeID
	Cycle []types.TypeID // for ErrRecursiveUnsized
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (type#%d)", e.Type)
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, id := range e.Cycle {
			parts = append(parts, fmt.Sprintf("type#%d", id))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case ErrDynamicSize:
		return fmt.Sprintf("size of type#%d depends on a type parameter", e.Type)
	case ErrNoLayout:
		return fmt.Sprintf("type#%d has no in-memory layout", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}
