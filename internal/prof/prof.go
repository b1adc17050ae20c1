// Package prof wires Go's built-in profilers behind one switch so the
// CLI can capture where generation time goes.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Config names the profile outputs to capture. Empty paths are skipped.
type Config struct {
	CPUPath   string // cpu samples (pprof)
	MemPath   string // heap snapshot written at Stop
	TracePath string // runtime execution trace
}

// Session is one active profiling run.
type Session struct {
	cpu     *os.File
	trc     *os.File
	memPath string
}

// Start begins the configured profiles. A nil session with a nil error
// means nothing was requested.
func Start(cfg Config) (*Session, error) {
	if cfg.CPUPath == "" && cfg.MemPath == "" && cfg.TracePath == "" {
		return nil, nil
	}
	s := &Session{memPath: cfg.MemPath}
	if cfg.CPUPath != "" {
		f, err := os.Create(cfg.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("prof: cpu: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("prof: cpu: %w", err)
		}
		s.cpu = f
	}
	if cfg.TracePath != "" {
		f, err := os.Create(cfg.TracePath)
		if err != nil {
			s.Stop()
			return nil, fmt.Errorf("prof: trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			f.Close()
			s.Stop()
			return nil, fmt.Errorf("prof: trace: %w", err)
		}
		s.trc = f
	}
	return s, nil
}

// Stop ends every active profile and writes the heap snapshot, if one
// was requested. Safe on a nil session.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	if s.cpu != nil {
		pprof.StopCPUProfile()
		s.cpu.Close()
		s.cpu = nil
	}
	if s.trc != nil {
		trace.Stop()
		s.trc.Close()
		s.trc = nil
	}
	if s.memPath == "" {
		return nil
	}
	f, err := os.Create(s.memPath)
	if err != nil {
		return fmt.Errorf("prof: mem: %w", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("prof: mem: %w", err)
	}
	return nil
}
