package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelStage emits driver and stage boundaries.
	LevelStage
	// LevelModule adds per-module events.
	LevelModule
	// LevelFunc adds per-function translation spans.
	LevelFunc
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelStage:
		return "stage"
	case LevelModule:
		return "module"
	case LevelFunc:
		return "func"
	default:
		return "unknown"
	}
}

// ParseLevel converts a flag value to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "":
		return LevelOff, nil
	case "stage":
		return LevelStage, nil
	case "module":
		return LevelModule, nil
	case "func":
		return LevelFunc, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|stage|module|func)", s)
	}
}

// ShouldEmit reports whether events of the given scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelStage:
		return scope <= ScopeStage
	case LevelModule:
		return scope <= ScopeModule
	case LevelFunc:
		return true
	}
	return false
}
