package trace

import (
	"fmt"
	"io"
	"os"
)

// Tracer receives trace events. Implementations must be goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Config selects the tracer built by New.
type Config struct {
	Level  Level
	Format Format
	Writer io.Writer // takes precedence over Path
	Path   string    // "-" or empty means stderr
}

// New builds a streaming tracer for the config, or the nop tracer when
// the level is off.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w := cfg.Writer
	if w == nil {
		if cfg.Path == "" || cfg.Path == "-" {
			w = os.Stderr
		} else {
			f, err := os.Create(cfg.Path)
			if err != nil {
				return nil, fmt.Errorf("trace: open output: %w", err)
			}
			w = f
		}
	}
	return NewStreamTracer(w, cfg.Level, cfg.Format), nil
}
