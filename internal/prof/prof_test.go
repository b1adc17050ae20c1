package prof_test

import (
	"os"
	"path/filepath"
	"testing"

	"ember/internal/prof"
)

func TestNothingRequestedIsANilSession(t *testing.T) {
	s, err := prof.Start(prof.Config{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s != nil {
		t.Fatalf("expected a nil session when no profile is requested")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("nil stop: %v", err)
	}
}

func TestProfilesAreWritten(t *testing.T) {
	dir := t.TempDir()
	cfg := prof.Config{
		CPUPath:   filepath.Join(dir, "cpu.out"),
		MemPath:   filepath.Join(dir, "mem.out"),
		TracePath: filepath.Join(dir, "trace.out"),
	}
	s, err := prof.Start(cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Generate a little work so the profiles have something to record.
	sum := 0
	for i := 0; i < 1_000_000; i++ {
		sum += i
	}
	_ = sum
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	for _, p := range []string{cfg.CPUPath, cfg.MemPath, cfg.TracePath} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Errorf("expected %s to be non-empty", filepath.Base(p))
		}
	}
}
