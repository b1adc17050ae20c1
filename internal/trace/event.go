package trace

import "time"

// Kind discriminates trace events.
type Kind uint8

const (
	// KindSpanBegin marks the start of a timed operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a timed operation.
	KindSpanEnd
	// KindPoint is an instant event with no duration.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole driver run.
	ScopeDriver Scope = iota + 1
	// ScopeStage covers one generation stage (translate, emit, write).
	ScopeStage
	// ScopeModule covers one module inside a stage.
	ScopeModule
	// ScopeFunc covers a single function translation.
	ScopeFunc
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeStage:
		return "stage"
	case ScopeModule:
		return "module"
	case ScopeFunc:
		return "func"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // monotonic, assigned on emission
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // e.g. "translate", "module:app", "fn:_E3app4main"
	Detail   string // optional end-of-span note
}
